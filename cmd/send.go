// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/pumplink/internal/logging"
	"github.com/Thermoquad/pumplink/pkg/equil"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

var (
	sendTimeout int
	sendCount   int
)

var sendCmd = &cobra.Command{
	Use:   "send <hex-payload>",
	Short: "Transmit a radio packet and wait for a reply",
	Long: `Frame a payload as a radio packet and transmit it, then wait for a reply.

The payload gets a CRC-8 trailer, is 4b6b encoded and terminated with 0x00
before it is written to the connection. Any valid packet received afterwards
counts as the reply; corrupted frames are reported and ignored.

This is useful for verifying:
  - Bidirectional traffic through the bridge
  - Round-trip latency to the pump
  - Link quality (frames lost or corrupted in either direction)

Exit codes:
  0 - Every transmission got a reply
  1 - One or more transmissions timed out
  2 - Connection error or invalid payload`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendTimeout, "timeout", 5, "Timeout in seconds to wait for each reply")
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "Number of times to transmit")
}

func runSend(cmd *cobra.Command, args []string) error {
	if sendCount < 1 {
		return fmt.Errorf("--count must be at least 1 (got %d)", sendCount)
	}
	if sendTimeout < 1 {
		return fmt.Errorf("--timeout must be at least 1 second (got %d)", sendTimeout)
	}
	payload, err := equil.HexToBytes(args[0])
	if err != nil {
		return err
	}
	frame, err := rileylink.EncodePacket(payload)
	if err != nil {
		return err
	}

	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(exitConnError)
	}

	fmt.Printf("Pumplink - Send\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Frame: % X\n", frame)
	fmt.Printf("Timeout: %d seconds per reply\n", sendTimeout)
	fmt.Printf("Count: %d\n\n", sendCount)

	replies := sendAndWait(os.Stdout, conn, frame, sendCount, time.Duration(sendTimeout)*time.Second)

	// Summary
	fmt.Printf("\n--- Link statistics ---\n")
	fmt.Printf("%d packets sent, %d replies received, %.0f%% loss\n",
		sendCount, replies, float64(sendCount-replies)/float64(sendCount)*100)

	conn.Close()
	if replies < sendCount {
		os.Exit(exitTimeout)
	}
	return nil
}

// linkEvent is one decoded packet or decode failure from the reader goroutine
type linkEvent struct {
	packet *rileylink.Packet
	err    error
}

// sendAndWait writes frame count times, waiting up to timeout for a reply
// packet after each write, and returns the number of replies. Packets that
// arrive after their send timed out are discarded before the next write.
func sendAndWait(out io.Writer, conn io.ReadWriter, frame []byte, count int, timeout time.Duration) int {
	events := make(chan linkEvent, 16)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	// One reader for the whole exchange so no bytes are lost between sends
	go func() {
		err := readPackets(conn, rileylink.NewDecoder(), func(packet *rileylink.Packet, err error) bool {
			select {
			case events <- linkEvent{packet: packet, err: err}:
				return true
			case <-done:
				return false
			}
		})
		readErr <- err
	}()

	replies := 0
	for i := 1; i <= count; i++ {
		drainStale(out, events)
		fmt.Fprintf(out, "Send %d/%d: ", i, count)

		start := time.Now()
		if _, err := conn.Write(frame); err != nil {
			fmt.Fprintf(out, "SEND FAILED: %v\n", err)
			continue
		}

		deadline := time.After(timeout)
	wait:
		for {
			select {
			case ev := <-events:
				if ev.err != nil {
					logging.LogCodecError(ev.err)
					fmt.Fprintf(out, "\n  %s", rileylink.FormatError(ev.err))
					continue
				}
				rtt := time.Since(start)
				logging.Debug("Reply received", zap.Duration("rtt", rtt), zap.Int("length", ev.packet.Length()))
				fmt.Fprintf(out, "REPLY len=%d payload=%s, rtt=%v\n",
					ev.packet.Length(), equil.BytesToHex(ev.packet.Payload()), rtt.Round(time.Millisecond))
				replies++
				break wait

			case err := <-readErr:
				fmt.Fprintf(out, "READ FAILED: %v\n", err)
				return replies

			case <-deadline:
				fmt.Fprintf(out, "TIMEOUT (no reply in %v)\n", timeout)
				break wait
			}
		}

		// Small delay between transmissions
		if i < count {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return replies
}

// drainStale empties events without blocking. Late replies are dropped and
// decode failures are still reported.
func drainStale(out io.Writer, events <-chan linkEvent) {
	for {
		select {
		case ev := <-events:
			if ev.err != nil {
				logging.LogCodecError(ev.err)
				fmt.Fprint(out, rileylink.FormatError(ev.err))
				continue
			}
			logging.Debug("Discarding late reply", zap.Int("length", ev.packet.Length()))
		default:
			return
		}
	}
}
