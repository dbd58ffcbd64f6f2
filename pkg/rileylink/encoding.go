// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rileylink

import "github.com/Thermoquad/pumplink/pkg/linkerr"

// EncodedLen returns the number of bytes Encode4b6b produces for n input bytes
func EncodedLen(n int) int {
	return (n*12 + 7) / 8
}

// Symbol returns the 6-bit code for a nibble (only the low 4 bits are used)
func Symbol(nibble byte) byte {
	return symbols[nibble&0x0F]
}

// ValidSymbol reports whether a 6-bit group is one of the 16 valid codes
func ValidSymbol(code byte) bool {
	return code < 64 && nibbles[code] >= 0
}

// Encode4b6b transcodes data into the 4b6b symbol stream.
// Each byte contributes two 6-bit symbols (high nibble first); symbols are
// packed most-significant bit first. When the stream ends mid-byte the low
// four bits of the final byte carry the pad nibble 0101.
func Encode4b6b(data []byte) []byte {
	out := make([]byte, 0, EncodedLen(len(data)))

	var acc uint32
	var bits uint
	for _, b := range data {
		acc = acc<<12 | uint32(symbols[b>>4])<<6 | uint32(symbols[b&0x0F])
		bits += 12
		for bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}
		acc &= 1<<bits - 1
	}

	// 12*n bits leaves either 0 or 4 bits pending
	if bits > 0 {
		out = append(out, byte(acc<<(8-bits))|padNibble)
	}

	return out
}

// Decode4b6b reverses Encode4b6b.
//
// The input is consumed six bits at a time. A group that is not a valid
// symbol fails with a linkerr.KindCoding error carrying the group value and
// its bit offset. Trailing bits that cannot form a full group are discarded as
// padding, and a trailing unpaired nibble is dropped, so no partial byte is
// ever emitted.
func Decode4b6b(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*8/12)

	var acc uint32
	var bits uint
	var offset int
	high := -1
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 6 {
			bits -= 6
			code := byte(acc>>bits) & 0x3F
			n := nibbles[code]
			if n < 0 {
				e := linkerr.New(linkerr.KindCoding, "rileylink.Decode4b6b", "invalid 4b6b symbol")
				e.Value = int(code)
				e.Offset = offset
				return nil, e
			}
			offset += 6

			if high < 0 {
				high = int(n)
			} else {
				out = append(out, byte(high<<4)|byte(n))
				high = -1
			}
		}
		acc &= 1<<bits - 1
	}

	return out, nil
}
