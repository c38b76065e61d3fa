package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/govfd/pkg/params"
)

// ErrInvalidConfig is returned by Validate for configurations the control loop cannot start with.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	HTTP      HTTPConfig      `yaml:"http"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	ADC       ADCConfig       `yaml:"adc"`
	Params    ParamsConfig    `yaml:"params"`
	Channels  []ChannelConfig `yaml:"channels"`
	Relays    []int           `yaml:"relays"`
	Recording RecordingConfig `yaml:"recording"`
	Sim       SimConfig       `yaml:"sim"`
}

// SerialConfig contains the companion console serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// HTTPConfig contains the companion HTTP API configuration.
type HTTPConfig struct {
	Listen string `yaml:"listen"` // Empty disables the API
}

// SamplingConfig contains ADC trigger rates for both sampling modes.
type SamplingConfig struct {
	ControlFrequency    float64 `yaml:"control_frequency"`    // Hz, externally triggered by the PWM timer
	MonitoringFrequency float64 `yaml:"monitoring_frequency"` // Hz, free running
}

// ADCConfig describes the raw ADC conversion.
type ADCConfig struct {
	Resolution int     `yaml:"resolution"` // Bits
	VRef       float64 `yaml:"vref"`       // Volts at full scale
	DCLinkGain float64 `yaml:"dc_link_gain"`
}

// ParamsConfig sizes the shared parameter table.
type ParamsConfig struct {
	Banks int `yaml:"banks"` // Inverter register banks, physical or store-only
}

// ChannelConfig describes a single inverter channel.
type ChannelConfig struct {
	Name                   string  `yaml:"name"`
	FirstPin               int     `yaml:"first_pin"`        // Pin of the first leg's upper switch
	LegSwitchCount         int     `yaml:"leg_switch_count"` // Pin stride between legs
	DuplicateLeg           bool    `yaml:"duplicate_leg"`
	NominalFrequency       float64 `yaml:"nominal_frequency"`        // Hz
	NominalModulationIndex float64 `yaml:"nominal_modulation_index"` // 0..1
	Acceleration           float64 `yaml:"acceleration"`             // Hz per second
	RequestedFrequency     float64 `yaml:"requested_frequency"`      // Hz
	Reverse                bool    `yaml:"reverse"`
}

// RecordingConfig contains telemetry recording parameters.
type RecordingConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Database  string        `yaml:"database"` // Empty generates a unique name
	Interval  time.Duration `yaml:"interval"`
	Window    time.Duration `yaml:"window"`     // In-memory history kept for the companion
	BatchSize int           `yaml:"batch_size"` // Rows buffered before a flush
}

// SimConfig contains simulated board parameters.
type SimConfig struct {
	DCLinkVoltage float64 `yaml:"dc_link_voltage"` // Volts
	NoiseLevel    float64 `yaml:"noise_level"`     // Volts
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		HTTP: HTTPConfig{
			Listen: "127.0.0.1:8080",
		},
		Sampling: SamplingConfig{
			ControlFrequency:    1000,
			MonitoringFrequency: 100,
		},
		ADC: ADCConfig{
			Resolution: 16,
			VRef:       3.3,
			DCLinkGain: 200,
		},
		Params: ParamsConfig{
			Banks: 2,
		},
		Channels: []ChannelConfig{
			{
				Name:                   "inv1",
				FirstPin:               1,
				LegSwitchCount:         2,
				NominalFrequency:       50,
				NominalModulationIndex: 0.9,
				Acceleration:           10,
				RequestedFrequency:     0,
			},
			{
				Name:                   "inv2",
				FirstPin:               7,
				LegSwitchCount:         2,
				NominalFrequency:       50,
				NominalModulationIndex: 0.9,
				Acceleration:           10,
				RequestedFrequency:     0,
			},
		},
		Relays: []int{15, 16},
		Recording: RecordingConfig{
			Enabled:   false,
			Interval:  100 * time.Millisecond,
			Window:    30 * time.Second,
			BatchSize: 1000,
		},
		Sim: SimConfig{
			DCLinkVoltage: 300,
			NoiseLevel:    0.5,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ControlPeriod returns the control tick period.
func (c *Config) ControlPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.Sampling.ControlFrequency)
}

// ensureDefaults ensures that all required fields have default values if missing.
// Channel electrical parameters are left alone: a zero there is a configuration
// fault reported by Validate, not something to paper over.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Sampling.ControlFrequency == 0 {
		c.Sampling.ControlFrequency = def.Sampling.ControlFrequency
	}
	if c.Sampling.MonitoringFrequency == 0 {
		c.Sampling.MonitoringFrequency = def.Sampling.MonitoringFrequency
	}

	if c.ADC.Resolution == 0 {
		c.ADC.Resolution = def.ADC.Resolution
	}
	if c.ADC.VRef == 0 {
		c.ADC.VRef = def.ADC.VRef
	}
	if c.ADC.DCLinkGain == 0 {
		c.ADC.DCLinkGain = def.ADC.DCLinkGain
	}

	if c.Params.Banks == 0 {
		c.Params.Banks = def.Params.Banks
	}

	for i := range c.Channels {
		if c.Channels[i].Name == "" {
			c.Channels[i].Name = fmt.Sprintf("inv%d", i+1)
		}
		if c.Channels[i].LegSwitchCount == 0 {
			c.Channels[i].LegSwitchCount = 2
		}
	}

	if c.Recording.Interval == 0 {
		c.Recording.Interval = def.Recording.Interval
	}
	if c.Recording.Window == 0 {
		c.Recording.Window = def.Recording.Window
	}
	if c.Recording.BatchSize == 0 {
		c.Recording.BatchSize = def.Recording.BatchSize
	}
}

// Validate reports configuration faults that must prevent the control loop from starting.
func (c *Config) Validate() error {
	if c.Sampling.ControlFrequency <= 0 {
		return fmt.Errorf("%w: control frequency must be positive, got %g", ErrInvalidConfig, c.Sampling.ControlFrequency)
	}
	if c.Sampling.MonitoringFrequency <= 0 {
		return fmt.Errorf("%w: monitoring frequency must be positive, got %g", ErrInvalidConfig, c.Sampling.MonitoringFrequency)
	}
	if c.ADC.Resolution < 1 || c.ADC.Resolution > 16 {
		return fmt.Errorf("%w: adc resolution %d out of range 1..16", ErrInvalidConfig, c.ADC.Resolution)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("%w: no inverter channels configured", ErrInvalidConfig)
	}
	if c.Params.Banks > params.MaxBanks {
		return fmt.Errorf("%w: %d parameter banks exceed the limit of %d", ErrInvalidConfig, c.Params.Banks, params.MaxBanks)
	}
	if len(c.Channels) > c.Params.Banks {
		return fmt.Errorf("%w: %d channels do not fit into %d parameter banks", ErrInvalidConfig, len(c.Channels), c.Params.Banks)
	}

	names := make(map[string]struct{}, len(c.Channels))
	for i, ch := range c.Channels {
		if _, dup := names[ch.Name]; dup {
			return fmt.Errorf("%w: duplicate channel name %q", ErrInvalidConfig, ch.Name)
		}
		names[ch.Name] = struct{}{}

		if ch.NominalFrequency <= 0 {
			return fmt.Errorf("%w: channel %d: nominal frequency must be positive", ErrInvalidConfig, i+1)
		}
		if ch.NominalModulationIndex <= 0 || ch.NominalModulationIndex > 1 {
			return fmt.Errorf("%w: channel %d: nominal modulation index %g out of range (0, 1]", ErrInvalidConfig, i+1, ch.NominalModulationIndex)
		}
		if ch.Acceleration <= 0 {
			return fmt.Errorf("%w: channel %d: acceleration must be positive", ErrInvalidConfig, i+1)
		}
		if ch.RequestedFrequency < 0 {
			return fmt.Errorf("%w: channel %d: requested frequency must not be negative", ErrInvalidConfig, i+1)
		}
	}

	if c.Recording.Interval <= 0 {
		return fmt.Errorf("%w: recording interval must be positive, got %s", ErrInvalidConfig, c.Recording.Interval)
	}
	if c.Recording.Window < 0 {
		return fmt.Errorf("%w: recording window must not be negative, got %s", ErrInvalidConfig, c.Recording.Window)
	}

	return nil
}
