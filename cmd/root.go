// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/pumplink/internal/config"
	"github.com/Thermoquad/pumplink/internal/logging"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	configPath string
	logLevel   string

	// Loaded in PersistentPreRunE
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "pumplink",
	Short: "Insulin pump radio link codec and analyzer",
	Long: `Pumplink - A CLI tool for encoding, decoding and monitoring insulin pump
radio link traffic.

Provides 4b6b transcoding, CRC computation, command envelope sealing and
opening, basal rate conversion, and live packet monitoring through a
RileyLink-style serial or WebSocket bridge.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Connection defaults may be stored in $XDG_CONFIG_HOME/pumplink/config.yaml.

The pairing password (WebSocket authentication and envelope key) is read from
the PUMPLINK_PASSWORD environment variable, or prompted interactively if not
set. The --password flag is intentionally not provided to avoid leaking
credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", config.DefaultBaud, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/pumplink/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default silent, or $PUMPLINK_LOG_LEVEL)")
}

// loadSettings reads the config file and fills in every connection flag the
// user did not set explicitly
func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if !flags.Changed("port") && cfg.Port != "" {
		portName = cfg.Port
	}
	if !flags.Changed("baud") {
		baudRate = cfg.Baud
	}
	if !flags.Changed("url") && cfg.URL != "" {
		wsURL = cfg.URL
	}
	if !flags.Changed("username") {
		wsUsername = cfg.Username
	}
	if !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = cfg.NoSSLVerify
	}
	if !flags.Changed("log-level") {
		logLevel = cfg.LogLevel
	}

	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	logging.Debug("Settings loaded",
		zap.String("command", cmd.Name()),
		zap.String("port", portName),
		zap.Int("baud", baudRate),
		zap.String("url", wsURL),
		zap.Int("fragment_size", cfg.FragmentSize),
	)
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
