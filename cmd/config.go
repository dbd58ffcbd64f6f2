// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/pumplink/internal/config"
	"github.com/Thermoquad/pumplink/internal/logging"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the pumplink configuration file",
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current connection settings as defaults",
	Long: `Write the effective settings (config file values overridden by any
flags given on this command line) to the configuration file.

The pairing password is never written. An existing file is only replaced
with --force.`,
	Example: `  # Remember a serial bridge
  pumplink config save --port /dev/ttyUSB0 --baud 57600

  # Switch to a WebSocket bridge, replacing the saved settings
  pumplink config save --url ws://bridge.local/link --username admin --force`,
	Args: cobra.NoArgs,
	RunE: runConfigSave,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout(), effectiveConfig())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configShowCmd)
	configSaveCmd.Flags().BoolVar(&configForce, "force", false, "Replace an existing config file")
}

// effectiveConfig merges the loaded config with the connection flags
func effectiveConfig() *config.Config {
	c := *cfg
	c.Port = portName
	c.Baud = baudRate
	c.URL = wsURL
	c.Username = wsUsername
	c.NoSSLVerify = wsNoSSLVerify
	c.LogLevel = logLevel
	return &c
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to replace it)", path)
	}

	c := effectiveConfig()
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.Save(path); err != nil {
		return err
	}
	logging.Info("Config saved", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
	return nil
}

func showConfig(w io.Writer, c *config.Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
