// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumplink/pkg/equil"
)

var rateRaw bool

var rateCmd = &cobra.Command{
	Use:   "rate <U/h>",
	Short: "Convert a basal rate to and from its wire encoding",
	Long: `Convert a basal rate in U/h to the pump's fixed-point wire value.

Rates travel as unsigned 16-bit counts of 1/160 U/h. The output shows the
encoded value, both byte orders, and the exact decoded rate in U/h and U/s.

With --raw the argument is an encoded value (decimal or 0x-prefixed hex)
instead of a rate.`,
	Args: cobra.ExactArgs(1),
	RunE: runRate,
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rateCmd.Flags().BoolVar(&rateRaw, "raw", false, "Argument is an encoded wire value")
}

func runRate(cmd *cobra.Command, args []string) error {
	if rateRaw {
		v, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return fmt.Errorf("invalid wire value %q: %w", args[0], err)
		}
		printRate(cmd.OutOrStdout(), equil.DecodeRateToUH(uint16(v)), uint16(v))
		return nil
	}

	rate, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", args[0], err)
	}
	if rate < 0 || math.IsNaN(rate) || rate > equil.DecodeRateToUH(math.MaxUint16) {
		return fmt.Errorf("rate %v U/h out of range (0 to %v)", rate, equil.DecodeRateToUH(math.MaxUint16))
	}
	printRate(cmd.OutOrStdout(), rate, equil.EncodeRateFromUH(rate))
	return nil
}

func printRate(w io.Writer, rate float64, v uint16) {
	be := equil.RateToBytesBE(equil.DecodeRateToUH(v))
	le := equil.RateToBytesLE(equil.DecodeRateToUH(v))

	fmt.Fprintf(w, "Rate:     %g U/h\n", rate)
	fmt.Fprintf(w, "Encoded:  %d (0x%04X)\n", v, v)
	fmt.Fprintf(w, "Bytes BE: % X\n", be[:])
	fmt.Fprintf(w, "Bytes LE: % X\n", le[:])
	fmt.Fprintf(w, "Decoded:  %s U/h\n", equil.DecodeRateToUHDecimal(v))
	fmt.Fprintf(w, "Per sec:  %s U/s\n", equil.DecodeRateToUS(v))
}
