// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumplink/internal/logging"
	"github.com/Thermoquad/pumplink/pkg/crc"
	"github.com/Thermoquad/pumplink/pkg/equil"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

var (
	encodePacket bool
	decodePacket bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode <hex>",
	Short: "4b6b encode bytes",
	Long: `4b6b encode a hex byte string.

With --packet the input is treated as a radio payload: a CRC-8 trailer is
appended before encoding and a 0x00 terminator after it, producing the exact
bytes sent over the air.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "4b6b decode bytes",
	Long: `4b6b decode a hex byte string.

With --packet the input is treated as a radio frame: the trailing 0x00
terminator is stripped and the CRC-8 trailer is verified and removed.

Invalid 6-bit symbols are reported with their value and bit offset.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

var crcCmd = &cobra.Command{
	Use:   "crc <hex>",
	Short: "Compute CRC-8 (Maxim) and CRC-16 of bytes",
	Args:  cobra.ExactArgs(1),
	RunE:  runCRC,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(crcCmd)
	encodeCmd.Flags().BoolVar(&encodePacket, "packet", false, "Frame as a radio packet (CRC-8 and terminator)")
	decodeCmd.Flags().BoolVar(&decodePacket, "packet", false, "Parse as a radio packet (terminator and CRC-8)")
}

func runEncode(cmd *cobra.Command, args []string) error {
	data, err := equil.HexToBytes(args[0])
	if err != nil {
		return err
	}

	if !encodePacket {
		fmt.Fprintln(cmd.OutOrStdout(), equil.BytesToHex(rileylink.Encode4b6b(data)))
		return nil
	}

	frame, err := rileylink.EncodePacket(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), equil.BytesToHex(frame))
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := equil.HexToBytes(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !decodePacket {
		decoded, err := rileylink.Decode4b6b(data)
		if err != nil {
			logging.LogCodecError(err)
			return err
		}
		fmt.Fprintln(out, equil.BytesToHex(decoded))
		return nil
	}

	packet, err := rileylink.DecodePacket(data)
	if err != nil {
		logging.LogCodecError(err)
		return err
	}
	logging.LogPacket(packet)
	fmt.Fprintf(out, "Payload: %s\n", equil.BytesToHex(packet.Payload()))
	fmt.Fprintf(out, "CRC-8:   0x%02X (ok)\n", packet.CRC())
	return nil
}

func runCRC(cmd *cobra.Command, args []string) error {
	data, err := equil.HexToBytes(args[0])
	if err != nil {
		return err
	}
	sum16 := crc.CRC16(data)
	fmt.Fprintf(cmd.OutOrStdout(), "CRC-8:  0x%02X\n", crc.CRC8(data))
	fmt.Fprintf(cmd.OutOrStdout(), "CRC-16: 0x%02X%02X\n", sum16[0], sum16[1])
	return nil
}
