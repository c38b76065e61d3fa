package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/itohio/govfd/pkg/companion"
	"github.com/itohio/govfd/pkg/config"
	"github.com/itohio/govfd/pkg/params"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "vfd",
	Short: "Open-loop V/F controller for dual-channel inverter boards.",
	Long: `vfd runs the control loop of up to two three-phase inverter channels ` +
		`and exposes the shared parameter table over a serial console and an HTTP API.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller on the simulated board.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Serial.Port, _ = flags.GetString("port")
		}
		if flags.Changed("http") {
			cfg.HTTP.Listen, _ = flags.GetString("http")
		}
		if flags.Changed("record") {
			cfg.Recording.Enabled, _ = flags.GetBool("record")
		}
		if flags.Changed("database") {
			cfg.Recording.Database, _ = flags.GetString("database")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and inspect configuration files.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configFile); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", configFile)
		}
		if err := config.Default().Save(configFile); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the parameter ids of the configured table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tWRITER")
		for _, id := range params.New(cfg.Params.Banks).IDs() {
			f := id.Field()
			kind := "float"
			if f.Kind() == params.KindBool {
				kind = "bool"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, kind, f.Owner())
		}
		return w.Flush()
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ports, err := companion.Ports()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), p.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")

	runCmd.Flags().StringP("port", "p", "", "Serial console port override, empty disables the console")
	runCmd.Flags().String("http", "", "HTTP API listen address override, empty disables the API")
	runCmd.Flags().Bool("record", false, "Record telemetry into SQLite")
	runCmd.Flags().String("database", "", "Telemetry database file, empty generates a unique name")

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(runCmd, configCmd, paramsCmd, portsCmd)
}
