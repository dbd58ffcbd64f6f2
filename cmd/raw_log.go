// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumplink/internal/logging"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw packet log in human-readable format",
	Long: `Continuously decode and display radio packets as they arrive.

Each null-terminated frame is 4b6b decoded and its CRC-8 checked. Valid packets
are shown with timestamp, length, CRC and a hex dump of the payload; corrupted
frames are shown with their error classification (CODING, CHECKSUM or
VALIDATION).

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pumplink - Raw Packet Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	err = logPackets(out, conn)
	if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
		logging.Info("Connection closed")
		fmt.Fprintln(cmd.ErrOrStderr(), "Connection closed")
		return nil
	}
	return err
}

// logPackets prints every packet and frame error read from r until r fails
func logPackets(w io.Writer, r io.Reader) error {
	return readPackets(r, rileylink.NewDecoder(), func(packet *rileylink.Packet, err error) bool {
		if err != nil {
			logging.LogCodecError(err)
			fmt.Fprint(w, rileylink.FormatError(err))
			return true
		}
		logging.LogPacket(packet)
		fmt.Fprint(w, rileylink.FormatPacket(packet))
		return true
	})
}
