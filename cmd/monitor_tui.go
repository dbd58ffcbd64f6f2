// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/pumplink/internal/logging"
	"github.com/Thermoquad/pumplink/pkg/equil"
	"github.com/Thermoquad/pumplink/pkg/linkerr"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	level     eventLevel
}

type eventLevel int

const (
	eventInfo eventLevel = iota
	eventTX
	eventRX
	eventError
)

// TUI model
type monitorModel struct {
	connInfo      string
	showAll       bool
	tx            io.Writer
	stats         *rileylink.Statistics
	started       time.Time
	events        []eventLogEntry
	maxLogEntries int
	log           viewport.Model
	input         textinput.Model
	synchronized  bool
	skipped       int
	lastPacket    *rileylink.Packet
	width         int
	height        int
	quitting      bool
	connLost      bool
}

// Messages
type monitorTickMsg time.Time

type monitorDataMsg struct {
	packet    *rileylink.Packet
	decodeErr error
}

type monitorLostMsg struct {
	err error
}

// Styles
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statsLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statsValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	txStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	boxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// Layout rows outside the event log: title, header, sync line, stats box,
// labels, input
const monitorChromeHeight = 16

func initialMonitorModel(connInfo string, tx io.Writer, showAll bool) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "hex payload to transmit"
	ti.Prompt = "TX> "
	ti.CharLimit = rileylink.MaxPayloadSize * 2
	ti.Width = 60
	ti.Focus()

	return monitorModel{
		connInfo:      connInfo,
		showAll:       showAll,
		tx:            tx,
		stats:         rileylink.NewStatistics(),
		started:       time.Now(),
		events:        make([]eventLogEntry, 0),
		maxLogEntries: 500,
		log:           viewport.New(76, 8),
		input:         ti,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		textinput.Blink,
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.transmit(m.input.Value())
			m.input.SetValue("")
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case monitorTickMsg:
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case monitorDataMsg:
		m.handleData(msg)

	case monitorLostMsg:
		m.connLost = true
		m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), eventError)
	}

	// Scroll keys go to the event log, everything else to the input line
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "down", "pgup", "pgdown":
			m.log, cmd = m.log.Update(msg)
		default:
			m.input, cmd = m.input.Update(msg)
		}
		return m, cmd
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.log, cmd = m.log.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *monitorModel) handleData(msg monitorDataMsg) {
	if msg.decodeErr != nil {
		// Noise before the first good frame is line sync, not an error
		if !m.synchronized {
			m.skipped++
			return
		}
		m.stats.Update(nil, msg.decodeErr)
		logging.LogCodecError(msg.decodeErr)
		m.addLogEntry(fmt.Sprintf("%s ERROR: %v", strings.ToUpper(linkerr.KindOf(msg.decodeErr).String()), msg.decodeErr), eventError)
		return
	}

	if !m.synchronized {
		m.synchronized = true
		if m.skipped > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d corrupted frames", m.skipped), eventInfo)
		} else {
			m.addLogEntry("Synchronized", eventInfo)
		}
	}

	m.stats.Update(msg.packet, nil)
	m.lastPacket = msg.packet
	logging.LogPacket(msg.packet)
	if m.showAll {
		m.addLogEntry(fmt.Sprintf("RX len=%d crc=0x%02X %s",
			msg.packet.Length(), msg.packet.CRC(), equil.BytesToHex(msg.packet.Payload())), eventRX)
	}
}

// transmit frames a hex payload as a radio packet and writes it
func (m *monitorModel) transmit(input string) {
	input = strings.Join(strings.Fields(input), "")
	if input == "" {
		return
	}

	payload, err := equil.HexToBytes(input)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("TX rejected: %v", err), eventError)
		return
	}
	frame, err := rileylink.EncodePacket(payload)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("TX rejected: %v", err), eventError)
		return
	}
	if m.connLost || m.tx == nil {
		m.addLogEntry("TX failed: not connected", eventError)
		return
	}
	if _, err := m.tx.Write(frame); err != nil {
		m.addLogEntry(fmt.Sprintf("TX failed: %v", err), eventError)
		return
	}
	m.addLogEntry(fmt.Sprintf("TX %s -> %s", equil.BytesToHex(payload), equil.BytesToHex(frame)), eventTX)
}

func (m *monitorModel) addLogEntry(message string, level eventLevel) {
	m.events = append(m.events, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		level:     level,
	})

	// Keep only last N entries
	if len(m.events) > m.maxLogEntries {
		m.events = m.events[len(m.events)-m.maxLogEntries:]
	}

	atBottom := m.log.AtBottom()
	m.log.SetContent(m.renderEvents())
	if atBottom {
		m.log.GotoBottom()
	}
}

func (m *monitorModel) resize() {
	m.log.Width = max(m.width-6, 20)
	m.log.Height = max(m.height-monitorChromeHeight, 5)
	m.input.Width = max(m.width-10, 10)
	m.log.SetContent(m.renderEvents())
	m.log.GotoBottom()
}

func (m monitorModel) renderEvents() string {
	if len(m.events) == 0 {
		return headerStyle.Render("(no events yet)")
	}

	var b strings.Builder
	for i, entry := range m.events {
		if i > 0 {
			b.WriteString("\n")
		}
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		switch entry.level {
		case eventError:
			b.WriteString(timestamp + " " + errorStyle.Render("✗ "+entry.message))
		case eventTX:
			b.WriteString(timestamp + " " + txStyle.Render("→ "+entry.message))
		case eventRX:
			b.WriteString(timestamp + " " + statsValueStyle.Render("← "+entry.message))
		default:
			b.WriteString(timestamp + " " + warningStyle.Render("ℹ "+entry.message))
		}
	}
	return b.String()
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("PUMPLINK - LINK MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Up %s | Enter sends, Esc quits",
		m.connInfo, formatElapsed(time.Since(m.started)))))
	s.WriteString("\n\n")

	// Sync status
	switch {
	case m.connLost:
		s.WriteString(errorStyle.Render("✗ Connection lost"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.skipped > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d corrupted frames)", m.skipped)))
		}
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.renderStats()))
	s.WriteString("\n")

	s.WriteString(statsLabelStyle.Render("Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.log.View()))
	s.WriteString("\n")
	s.WriteString(m.input.View())

	return s.String()
}

func (m monitorModel) renderStats() string {
	st := m.stats
	errs := st.Errors()

	var validPercent, errorPercent float64
	if st.TotalPackets > 0 {
		validPercent = float64(st.ValidPackets) * 100.0 / float64(st.TotalPackets)
		errorPercent = float64(errs) * 100.0 / float64(st.TotalPackets)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", st.TotalPackets)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.ValidPackets, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", errs, errorPercent)),
	)

	if errs > 0 {
		fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Coding:"), errorStyle.Render(fmt.Sprintf("%d", st.CodingErrors)),
			statsLabelStyle.Render("CRC:"), errorStyle.Render(fmt.Sprintf("%d", st.CRCErrors)),
			statsLabelStyle.Render("Framing:"), errorStyle.Render(fmt.Sprintf("%d", st.FramingErrors+st.OtherErrors)),
		)
	}

	if m.lastPacket != nil {
		fmt.Fprintf(&b, "%s %s\n",
			statsLabelStyle.Render("Last:"),
			statsValueStyle.Render(fmt.Sprintf("len=%d %s", m.lastPacket.Length(), equil.BytesToHex(m.lastPacket.Payload()))),
		)
	}

	errorRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
	if st.ErrorRate > 0 {
		errorRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
	}
	fmt.Fprintf(&b, "%s %s   %s %s",
		statsLabelStyle.Render("Packet Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f pkts/s", st.PacketRate)),
		statsLabelStyle.Render("Error Rate:"), errorRate,
	)
	return b.String()
}

// formatElapsed formats a duration as "1 hour, 2 minutes and 3 seconds"
func formatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0 seconds"
	}

	days := seconds / 86400
	hours := seconds / 3600 % 24
	minutes := seconds / 60 % 60
	seconds %= 60

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
