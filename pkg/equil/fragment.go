// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

import (
	"fmt"

	"github.com/Thermoquad/pumplink/pkg/crc"
	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// Fragment is one piece of a payload split for transmission.
//
// Wire layout:
//
//	[header:1][length:1][data:length][crc8:1]
//
// The header carries the 6-bit index and, on the last fragment, the END bit.
// The CRC-8 covers header, length and data.
type Fragment struct {
	Header byte
	Data   []byte
}

// Index returns the fragment's position in its sequence
func (f Fragment) Index() int {
	return Index(f.Header)
}

// IsEnd reports whether this is the last fragment
func (f Fragment) IsEnd() bool {
	return IsEnd(f.Header)
}

// Bytes returns the wire form of the fragment
func (f Fragment) Bytes() []byte {
	out := make([]byte, 0, len(f.Data)+fragmentOverhead)
	out = append(out, f.Header, byte(len(f.Data)))
	out = append(out, f.Data...)
	return crc.AppendCRC8(out)
}

// Split breaks payload into fragments of at most chunkSize data bytes. An
// empty payload yields a single empty END fragment.
func Split(payload []byte, chunkSize int) ([]Fragment, error) {
	const op = "equil.Split"

	if chunkSize < 1 || chunkSize > MaxChunkSize {
		return nil, linkerr.New(linkerr.KindArgument, op, fmt.Sprintf("chunk size %d out of range 1..%d", chunkSize, MaxChunkSize))
	}

	count := CeilInt(float64(len(payload)) / float64(chunkSize))
	if count == 0 {
		count = 1
	}
	if count > MaxFragments {
		e := linkerr.New(linkerr.KindValidation, op, fmt.Sprintf("payload needs %d fragments (max %d)", count, MaxFragments))
		e.Length = len(payload)
		return nil, e
	}

	frags := make([]Fragment, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(payload))
		header := ClearStart(byte(i))
		if i == count-1 {
			header = SetEnd(header)
		}
		frags = append(frags, Fragment{Header: header, Data: payload[start:end]})
	}
	return frags, nil
}

// ParseFragment validates and decodes the wire form of a fragment
func ParseFragment(frame []byte) (Fragment, error) {
	const op = "equil.ParseFragment"

	if len(frame) < fragmentOverhead {
		e := linkerr.New(linkerr.KindValidation, op, "fragment too short")
		e.Length = len(frame)
		return Fragment{}, e
	}
	if n := int(frame[1]); n != len(frame)-fragmentOverhead {
		e := linkerr.New(linkerr.KindValidation, op, fmt.Sprintf("length field %d does not match %d data bytes", n, len(frame)-fragmentOverhead))
		e.Field = "length"
		e.Length = n
		return Fragment{}, e
	}

	body := frame[:len(frame)-1]
	if !crc.VerifyCRC8(frame) {
		return Fragment{}, linkerr.New(linkerr.KindChecksum, op,
			fmt.Sprintf("CRC mismatch: expected 0x%02X, got 0x%02X", crc.CRC8(body), frame[len(frame)-1]))
	}

	data := make([]byte, len(body)-2)
	copy(data, body[2:])
	return Fragment{Header: frame[0], Data: data}, nil
}

// Reassembler collects fragments in index order until the END fragment
type Reassembler struct {
	next int
	buf  []byte
}

// NewReassembler creates an empty reassembler
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Add consumes one fragment frame. When the END fragment arrives it returns
// the reassembled payload with done set, and the reassembler starts over. An
// out-of-order or corrupt fragment discards the partial payload.
func (r *Reassembler) Add(frame []byte) ([]byte, bool, error) {
	f, err := ParseFragment(frame)
	if err != nil {
		r.Reset()
		return nil, false, err
	}

	if f.Index() != r.next {
		e := linkerr.New(linkerr.KindValidation, "equil.Reassembler", fmt.Sprintf("fragment index %d, expected %d", f.Index(), r.next))
		e.Field = "index"
		r.Reset()
		return nil, false, e
	}

	r.buf = append(r.buf, f.Data...)
	r.next++

	if !f.IsEnd() {
		return nil, false, nil
	}

	payload := r.buf
	if payload == nil {
		payload = []byte{}
	}
	r.buf = nil
	r.next = 0
	return payload, true, nil
}

// Pending returns the number of fragments received toward the current payload
func (r *Reassembler) Pending() int {
	return r.next
}

// Reset discards any partial payload
func (r *Reassembler) Reset() {
	r.next = 0
	r.buf = nil
}
