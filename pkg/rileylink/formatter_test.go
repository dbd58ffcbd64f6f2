// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rileylink

import (
	"strings"
	"testing"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

func TestFormatPacket(t *testing.T) {
	p := NewPacket([]byte{0xA7, 0x12}, 0x5E, []byte{0xA9, 0x6C, 0x72})
	out := FormatPacket(p)

	for _, want := range []string{"PACKET len=2", "crc=0x5E", "encoded=3", "0000: A7 12"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPacket output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatError(t *testing.T) {
	out := FormatError(linkerr.New(linkerr.KindCoding, "rileylink.Decode4b6b", "invalid 4b6b symbol"))
	if !strings.Contains(out, "CODING ERROR") {
		t.Errorf("FormatError should label the kind: %s", out)
	}
}

func TestFormatHexDump(t *testing.T) {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(i)
	}

	out := FormatHexDump(data, "> ")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "> 0010: 10 11 12 13") {
		t.Errorf("second row = %q", lines[1])
	}

	if got := FormatHexDump(nil, ""); got != "(empty)\n" {
		t.Errorf("FormatHexDump(nil) = %q", got)
	}
}
