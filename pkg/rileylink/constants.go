// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rileylink implements the radio link layer spoken by RileyLink-style
// bridges to 916/868 MHz insulin pumps.
//
// Every byte on air is transcoded with the 4b6b line code: each nibble becomes
// a 6-bit symbol with no long runs of identical bits, which keeps the stream
// self-clocking and DC-balanced. Only 16 of the 64 possible symbols are
// valid, so corrupted transmissions are usually detected at the symbol level
// before the CRC-8 trailer is even checked. A packet on air is
//
//	4b6b(payload || crc8(payload)) || 0x00
//
// where the null byte cannot occur inside a 4b6b stream and marks the end of
// the packet.
package rileylink

// Packet framing
const (
	// Terminator ends every encoded packet. No run of valid symbols contains
	// eight consecutive zero bits.
	Terminator = 0x00

	// padNibble fills the low four bits of the final byte when the symbol
	// stream ends mid-byte (odd number of input bytes).
	padNibble = 0x05
)

// Packet size limits
const (
	MaxPayloadSize = 120                            // payload bytes, excluding CRC-8
	MaxFrameSize   = (3*(MaxPayloadSize+1) + 1) / 2 // encoded bytes, excluding terminator
)

// symbols maps each nibble to its 6-bit 4b6b code
var symbols = [16]byte{
	0x15, 0x31, 0x32, 0x23, 0x34, 0x25, 0x26, 0x16,
	0x1A, 0x19, 0x2A, 0x0B, 0x2C, 0x0D, 0x0E, 0x1C,
}

// nibbles is the reverse of symbols; -1 marks the 48 invalid codes
var nibbles = func() [64]int8 {
	var t [64]int8
	for i := range t {
		t[i] = -1
	}
	for n, code := range symbols {
		t[code] = int8(n)
	}
	return t
}()

// Decoder states (internal)
const (
	stateFrame = iota
	stateDiscard
)
