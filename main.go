// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Pumplink - Insulin pump radio link codec and analyzer
//
// A CLI tool for 4b6b transcoding, command envelope sealing and live
// monitoring of RileyLink-style pump radio traffic.

package main

import (
	"os"

	"github.com/Thermoquad/pumplink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
