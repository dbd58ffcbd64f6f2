// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging provides the process-wide zap logger for the pumplink CLI.
//
// Logging is silent unless a level is given on the command line, in the
// config file, or through PUMPLINK_LOG_LEVEL. Output goes to stderr so that
// command output on stdout stays machine readable.
package logging

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Thermoquad/pumplink/pkg/equil"
	"github.com/Thermoquad/pumplink/pkg/linkerr"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "PUMPLINK_LOG_LEVEL"

// maxHexBytes bounds the hex dumps attached to log entries
const maxHexBytes = 256

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize creates the logger at the given level. An empty level falls back
// to PUMPLINK_LOG_LEVEL; if that is also empty, logging is disabled.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// SetLogger replaces the global logger (used by tests)
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogPacket logs a decoded radio packet at debug level
func LogPacket(p *rileylink.Packet) {
	Debug("Packet decoded",
		zap.Int("length", p.Length()),
		zap.String("crc", fmt.Sprintf("0x%02X", p.CRC())),
		zap.String("payload", hexDump(p.Payload())),
		zap.Int("encoded_length", len(p.Raw())),
	)
}

// LogCodecError logs a codec failure with its classification. Retryable
// kinds are warnings; authentication failures and contract violations are
// errors.
func LogCodecError(err error) {
	kind := linkerr.KindOf(err)
	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Bool("retryable", kind.Retryable()),
		zap.Error(err),
	}

	var le *linkerr.Error
	if errors.As(err, &le) {
		if le.Field != "" {
			fields = append(fields, zap.String("field", le.Field))
		}
		if le.Value >= 0 {
			fields = append(fields, zap.Int("value", le.Value))
		}
		if le.Length >= 0 {
			fields = append(fields, zap.Int("length", le.Length))
		}
		if le.Offset >= 0 {
			fields = append(fields, zap.Int("offset", le.Offset))
		}
	}

	if kind.Retryable() {
		Warn("Codec error", fields...)
		return
	}
	Error("Codec error", fields...)
}

// LogRawBytes logs raw bytes (useful for debugging link issues)
func LogRawBytes(label string, data []byte) {
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
	)
}

func hexDump(data []byte) string {
	if len(data) > maxHexBytes {
		return equil.BytesToHex(data[:maxHexBytes]) + "..."
	}
	return equil.BytesToHex(data)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
