// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Thermoquad/pumplink/internal/config"
)

func TestLoadSettings_ConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "version: 1\nport: /dev/ttyACM0\nbaud: 57600\nfragment_size: 20\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		portName, baudRate, configPath = "", 0, ""
	})

	if _, err := execute(t, "--config", path, "crc", "00"); err != nil {
		t.Fatal(err)
	}
	if portName != "/dev/ttyACM0" || baudRate != 57600 {
		t.Errorf("port/baud = %q/%d, want config values", portName, baudRate)
	}
	if cfg.FragmentSize != 20 {
		t.Errorf("FragmentSize = %d, want 20", cfg.FragmentSize)
	}
}

func TestLoadSettings_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 9\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { configPath = "" })

	if _, err := execute(t, "--config", path, "crc", "00"); err == nil {
		t.Error("expected error for unsupported config version")
	}
}

func TestConfigSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pumplink", "config.yaml")
	t.Cleanup(func() {
		portName, baudRate, configPath, configForce = "", 0, "", false
	})

	out, err := execute(t, "--config", path, "config", "save", "--port", "/dev/ttyUSB1", "--baud", "57600")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Saved "+path) {
		t.Errorf("output = %q", out)
	}

	saved, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Port != "/dev/ttyUSB1" || saved.Baud != 57600 || saved.FragmentSize != 16 {
		t.Errorf("saved = %+v", saved)
	}

	if _, err := execute(t, "--config", path, "config", "save"); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("overwrite without --force: err = %v", err)
	}
	if _, err := execute(t, "--config", path, "config", "save", "--baud", "9600", "--force"); err != nil {
		t.Fatalf("save --force: %v", err)
	}
	if saved, _ = config.Load(path); saved.Baud != 9600 || saved.Port != "/dev/ttyUSB1" {
		t.Errorf("after --force: %+v", saved)
	}

	out, err = execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "port: /dev/ttyUSB1") || !strings.Contains(out, "baud: 9600") {
		t.Errorf("show output:\n%s", out)
	}
}
