// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rileylink

import "time"

// Packet represents a decoded radio packet
type Packet struct {
	payload   []byte // Decoded bytes, CRC-8 trailer removed
	crc       byte
	raw       []byte // 4b6b bytes as received, terminator removed
	timestamp time.Time
}

// NewPacket creates a new packet with the given fields
func NewPacket(payload []byte, crc byte, raw []byte) *Packet {
	return &Packet{
		payload:   payload,
		crc:       crc,
		raw:       raw,
		timestamp: time.Now(),
	}
}

// Length returns the payload length in bytes
func (p *Packet) Length() int {
	return len(p.payload)
}

// Payload returns the decoded payload bytes
func (p *Packet) Payload() []byte {
	return p.payload
}

// CRC returns the packet's CRC-8 trailer
func (p *Packet) CRC() byte {
	return p.crc
}

// Raw returns the encoded bytes the packet was decoded from
func (p *Packet) Raw() []byte {
	return p.raw
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}
