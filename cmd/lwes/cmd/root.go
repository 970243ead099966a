/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/lwes/pkg/config"
	"github.com/ssargent/lwes/pkg/di"
)

var (
	cfgFile   string
	container *di.Container
)

// SetContainer injects the dependency container. When none is set the
// root command builds one from the loaded configuration.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lwes",
	Short: "Light Weight Event System tools",
	Long: `lwes sends, receives and inspects self-describing events carried
one per UDP datagram, unicast or multicast.

Configuration is read from --config, or ~/.config/lwes/config.yaml when it
exists, and individual settings can be overridden with flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container != nil {
			return nil
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		container = di.NewContainer(cfg)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return nil
		}
		return container.Close()
	},
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if path == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Transport.Address, _ = flags.GetString("address")
	}
	if flags.Changed("port") {
		cfg.Transport.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("interface") {
		cfg.Transport.Interface, _ = flags.GetString("interface")
	}
	if flags.Changed("ttl") {
		cfg.Transport.TTL, _ = flags.GetInt("ttl")
	}
	if flags.Changed("schema") {
		cfg.Schema.Path, _ = flags.GetString("schema")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/lwes/config.yaml)")
	rootCmd.PersistentFlags().StringP("address", "a", config.DefaultAddress, "Unicast address or multicast group")
	rootCmd.PersistentFlags().IntP("port", "p", config.DefaultPort, "UDP port")
	rootCmd.PersistentFlags().String("interface", "", "Multicast interface name")
	rootCmd.PersistentFlags().Int("ttl", 1, "Multicast TTL")
	rootCmd.PersistentFlags().String("schema", "", "ESF file describing the events")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console or json)")
}
