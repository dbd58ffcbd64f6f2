// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rileylink

import (
	"fmt"

	"github.com/Thermoquad/pumplink/pkg/crc"
	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// EncodePacket creates a complete wire-formatted radio packet.
// Returns 4b6b(payload || crc8(payload)) followed by the terminator.
func EncodePacket(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		e := linkerr.New(linkerr.KindValidation, "rileylink.EncodePacket",
			fmt.Sprintf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize))
		e.Field = "payload"
		return nil, e
	}

	encoded := Encode4b6b(crc.AppendCRC8(payload))
	return append(encoded, Terminator), nil
}

// DecodePacket decodes one wire-formatted packet. A trailing terminator is
// optional. Symbol errors are reported as linkerr.KindCoding, CRC mismatches
// as linkerr.KindChecksum.
func DecodePacket(frame []byte) (*Packet, error) {
	const op = "rileylink.DecodePacket"

	if n := len(frame); n > 0 && frame[n-1] == Terminator {
		frame = frame[:n-1]
	}
	if len(frame) == 0 {
		return nil, linkerr.New(linkerr.KindValidation, op, "empty frame")
	}
	if len(frame) > MaxFrameSize {
		e := linkerr.New(linkerr.KindValidation, op,
			fmt.Sprintf("frame too large: %d bytes (max %d)", len(frame), MaxFrameSize))
		e.Field = "frame"
		return nil, e
	}

	decoded, err := Decode4b6b(frame)
	if err != nil {
		return nil, err
	}
	if len(decoded) < 1 {
		return nil, linkerr.New(linkerr.KindValidation, op, "frame too short for CRC")
	}

	n := len(decoded) - 1
	payload, received := decoded[:n], decoded[n]
	if expected := crc.CRC8(payload); expected != received {
		e := linkerr.New(linkerr.KindChecksum, op,
			fmt.Sprintf("CRC mismatch: expected 0x%02X, got 0x%02X", expected, received))
		e.Value = int(received)
		return nil, e
	}

	raw := make([]byte, len(frame))
	copy(raw, frame)
	return NewPacket(payload, received, raw), nil
}
