// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumplink/internal/logging"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor link quality and transmit packets interactively",
	Long: `Track radio packets, corrupted frames and link statistics in real time.

Each frame is classified as valid, a 4b6b coding error (invalid symbol), a
CRC-8 mismatch, or a framing error (empty or oversized frame). Errors before
the first valid packet are treated as line synchronization and only counted.

In TUI mode, type a hex payload and press Enter to transmit it as a radio
packet. Up/Down/PgUp/PgDn scroll the event log; Esc or Ctrl+C quits.

By default, only errors are logged. Use --show-all to log valid packets too.
With --tui=false the monitor prints events as text and a statistics summary
every --stats-interval seconds.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all packets (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds, text mode)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if err := checkStatsInterval(); err != nil {
		return err
	}

	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runMonitorTUI(conn, connInfo)
	}
	return runMonitorText(cmd.OutOrStdout(), conn, connInfo)
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI(conn Connection, connInfo string) error {
	m := initialMonitorModel(connInfo, conn, showAll)
	p := tea.NewProgram(m)

	// Connection reader goroutine
	go func() {
		err := readPackets(conn, rileylink.NewDecoder(), func(packet *rileylink.Packet, err error) bool {
			p.Send(monitorDataMsg{packet: packet, decodeErr: err})
			return true
		})
		p.Send(monitorLostMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

func checkStatsInterval() error {
	if statsInterval < 1 {
		return fmt.Errorf("--stats-interval must be at least 1 second (got %d)", statsInterval)
	}
	return nil
}

// runMonitorText runs the monitor in text mode
func runMonitorText(out io.Writer, conn io.Reader, connInfo string) error {
	if err := checkStatsInterval(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Pumplink - Link Monitor\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Fprintf(out, "Mode: All packets\n")
	} else {
		fmt.Fprintf(out, "Mode: Errors only\n")
	}
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	// Channel for non-blocking connection reads
	events := make(chan monitorDataMsg, 16)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readPackets(conn, rileylink.NewDecoder(), func(packet *rileylink.Packet, err error) bool {
			events <- monitorDataMsg{packet: packet, decodeErr: err}
			return true
		})
	}()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	mon := newTextMonitor(out, showAll)
	for {
		select {
		case ev := <-events:
			mon.handle(ev)

		case err := <-readErr:
			// Drain events decoded before the read failed
			for len(events) > 0 {
				mon.handle(<-events)
			}
			fmt.Fprintf(out, "\nConnection closed: %v\n\n", err)
			fmt.Fprint(out, mon.stats.String())
			return nil

		case <-statsTicker.C:
			mon.stats.CalculateRates()
			fmt.Fprintln(out)
			fmt.Fprint(out, mon.stats.String())
			fmt.Fprintln(out)
		}
	}
}

// textMonitor prints monitor events and keeps statistics
type textMonitor struct {
	out          io.Writer
	showAll      bool
	stats        *rileylink.Statistics
	synchronized bool
	skipped      int
}

func newTextMonitor(out io.Writer, showAll bool) *textMonitor {
	return &textMonitor{out: out, showAll: showAll, stats: rileylink.NewStatistics()}
}

func (t *textMonitor) handle(ev monitorDataMsg) {
	if ev.decodeErr != nil {
		if !t.synchronized {
			t.skipped++
			return
		}
		t.stats.Update(nil, ev.decodeErr)
		logging.LogCodecError(ev.decodeErr)
		fmt.Fprint(t.out, rileylink.FormatError(ev.decodeErr))
		return
	}

	if !t.synchronized {
		t.synchronized = true
		if t.skipped > 0 {
			fmt.Fprintf(t.out, "[SYNC] Synchronized after skipping %d corrupted frames\n\n", t.skipped)
		} else {
			fmt.Fprintf(t.out, "[SYNC] Synchronized\n\n")
		}
	}

	t.stats.Update(ev.packet, nil)
	logging.LogPacket(ev.packet)
	if t.showAll {
		fmt.Fprint(t.out, rileylink.FormatPacket(ev.packet))
	}
}
