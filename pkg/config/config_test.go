package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, float64(1000), cfg.Sampling.ControlFrequency)
	assert.Equal(t, float64(100), cfg.Sampling.MonitoringFrequency)
	assert.Equal(t, 2, cfg.Params.Banks)
	assert.Len(t, cfg.Channels, 2)
	assert.Equal(t, "inv1", cfg.Channels[0].Name)
	assert.Equal(t, float64(50), cfg.Channels[0].NominalFrequency)
	assert.Equal(t, 0.9, cfg.Channels[0].NominalModulationIndex)
	assert.Equal(t, []int{15, 16}, cfg.Relays)
	assert.Equal(t, 100*time.Millisecond, cfg.Recording.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB1"
  baud_rate: 57600

sampling:
  control_frequency: 20000
  monitoring_frequency: 250

params:
  banks: 2

channels:
  - name: spindle
    first_pin: 1
    leg_switch_count: 2
    duplicate_leg: true
    nominal_frequency: 60
    nominal_modulation_index: 0.8
    acceleration: 5
    requested_frequency: 30
    reverse: true

recording:
  enabled: true
  interval: 250ms
  window: 1m
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, float64(20000), cfg.Sampling.ControlFrequency)
	assert.Equal(t, float64(250), cfg.Sampling.MonitoringFrequency)
	require.Len(t, cfg.Channels, 1)
	ch := cfg.Channels[0]
	assert.Equal(t, "spindle", ch.Name)
	assert.True(t, ch.DuplicateLeg)
	assert.Equal(t, float64(60), ch.NominalFrequency)
	assert.Equal(t, 0.8, ch.NominalModulationIndex)
	assert.Equal(t, float64(5), ch.Acceleration)
	assert.Equal(t, float64(30), ch.RequestedFrequency)
	assert.True(t, ch.Reverse)
	assert.True(t, cfg.Recording.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Recording.Interval)
	assert.Equal(t, time.Minute, cfg.Recording.Window)
	assert.Equal(t, 50*time.Microsecond, cfg.ControlPeriod())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyS0"
channels:
  - nominal_frequency: 50
    nominal_modulation_index: 0.9
    acceleration: 10
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyS0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, float64(1000), cfg.Sampling.ControlFrequency)
	assert.Equal(t, 2, cfg.Params.Banks)
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, "inv1", cfg.Channels[0].Name)
	assert.Equal(t, 2, cfg.Channels[0].LegSwitchCount)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Channels[1].Acceleration = 2.5

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 2.5, loaded.Channels[1].Acceleration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{
			name:   "no channels",
			mutate: func(c *Config) { c.Channels = nil },
		},
		{
			name:   "more channels than banks",
			mutate: func(c *Config) { c.Params.Banks = 1 },
		},
		{
			name:   "zero nominal frequency",
			mutate: func(c *Config) { c.Channels[0].NominalFrequency = 0 },
		},
		{
			name:   "modulation index above one",
			mutate: func(c *Config) { c.Channels[1].NominalModulationIndex = 1.2 },
		},
		{
			name:   "zero acceleration",
			mutate: func(c *Config) { c.Channels[0].Acceleration = 0 },
		},
		{
			name:   "negative requested frequency",
			mutate: func(c *Config) { c.Channels[0].RequestedFrequency = -1 },
		},
		{
			name:   "duplicate names",
			mutate: func(c *Config) { c.Channels[1].Name = c.Channels[0].Name },
		},
		{
			name:   "negative control frequency",
			mutate: func(c *Config) { c.Sampling.ControlFrequency = -5 },
		},
		{
			name:   "adc resolution",
			mutate: func(c *Config) { c.ADC.Resolution = 24 },
		},
		{
			name:   "too many banks",
			mutate: func(c *Config) { c.Params.Banks = 256 },
		},
		{
			name:   "negative recording interval",
			mutate: func(c *Config) { c.Recording.Interval = -time.Second },
		},
		{
			name:   "negative recording window",
			mutate: func(c *Config) { c.Recording.Window = -time.Second },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
