// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rileylink

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")

	result := fmt.Sprintf("[%s] PACKET len=%d crc=0x%02X encoded=%d\n", timestamp, p.Length(), p.crc, len(p.raw))
	result += FormatHexDump(p.payload, "  ")

	return result
}

// FormatError formats a decode error into a human-readable string
func FormatError(err error) string {
	timestamp := time.Now().Format("15:04:05.000")
	kind := strings.ToUpper(linkerr.KindOf(err).String())
	return fmt.Sprintf("[%s] %s ERROR: %v\n", timestamp, kind, err)
}

// FormatHexDump renders data as rows of 16 hex bytes, each row prefixed with
// indent and the row offset
func FormatHexDump(data []byte, indent string) string {
	if len(data) == 0 {
		return indent + "(empty)\n"
	}

	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "%s%04X: % X\n", indent, off, data[off:end])
	}
	return b.String()
}
