// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rileylink

import (
	"fmt"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// Decoder splits a received byte stream into radio packets.
// Bytes accumulate until a terminator, then the frame is decoded with
// DecodePacket. A frame that grows past MaxFrameSize is dropped and the
// decoder discards bytes until the next terminator.
type Decoder struct {
	state  int
	buffer []byte
}

// NewDecoder creates a new stream decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateFrame,
		buffer: make([]byte, 0, MaxFrameSize),
	}
}

// Reset resets the decoder state and drops any partial frame
func (d *Decoder) Reset() {
	d.state = stateFrame
	d.buffer = d.buffer[:0]
}

// Pending returns the number of bytes accumulated for the current frame
func (d *Decoder) Pending() int {
	return len(d.buffer)
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the packet is incomplete.
// Returns an error if the frame is oversized or fails to decode.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch d.state {
	case stateDiscard:
		if b == Terminator {
			d.Reset()
		}
		return nil, nil

	case stateFrame:
		if b == Terminator {
			if len(d.buffer) == 0 {
				// Idle line or back-to-back terminators
				return nil, nil
			}
			packet, err := DecodePacket(d.buffer)
			d.Reset()
			return packet, err
		}

		if len(d.buffer) >= MaxFrameSize {
			d.state = stateDiscard
			d.buffer = d.buffer[:0]
			e := linkerr.New(linkerr.KindValidation, "rileylink.Decoder",
				fmt.Sprintf("frame exceeds %d bytes without terminator", MaxFrameSize))
			e.Field = "frame"
			return nil, e
		}
		d.buffer = append(d.buffer, b)
		return nil, nil

	default:
		d.Reset()
		return nil, linkerr.New(linkerr.KindValidation, "rileylink.Decoder",
			fmt.Sprintf("invalid state: %d", d.state))
	}
}

// Decode feeds a chunk of bytes through DecodeByte and returns every packet
// and error produced, in stream order.
func (d *Decoder) Decode(data []byte) ([]*Packet, []error) {
	var packets []*Packet
	var errs []error
	for _, b := range data {
		p, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p != nil {
			packets = append(packets, p)
		}
	}
	return packets, errs
}
