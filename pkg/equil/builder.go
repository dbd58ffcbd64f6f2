// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

import (
	"encoding/binary"
	"fmt"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// Builder assembles a command payload field by field
type Builder struct {
	buf []byte
}

// NewBuilder creates an empty payload builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Byte appends a single byte
func (b *Builder) Byte(v byte) *Builder {
	b.buf = append(b.buf, v)
	return b
}

// Bytes appends raw bytes
func (b *Builder) Bytes(v []byte) *Builder {
	b.buf = append(b.buf, v...)
	return b
}

// Uint16LE appends v little-endian
func (b *Builder) Uint16LE(v uint16) *Builder {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
	return b
}

// Uint32LE appends v little-endian
func (b *Builder) Uint32LE(v uint32) *Builder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

// RateBE appends a U/h rate high byte first
func (b *Builder) RateBE(uh float64) *Builder {
	r := RateToBytesBE(uh)
	return b.Bytes(r[:])
}

// RateLE appends a U/h rate low byte first
func (b *Builder) RateLE(uh float64) *Builder {
	r := RateToBytesLE(uh)
	return b.Bytes(r[:])
}

// Len returns the number of bytes appended so far
func (b *Builder) Len() int {
	return len(b.buf)
}

// Build returns a copy of the assembled payload
func (b *Builder) Build() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// Reader consumes a command payload field by field. The first short read
// sets a sticky error; later reads return zero values.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader creates a reader over data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.err = linkerr.New(linkerr.KindValidation, "equil.Reader", fmt.Sprintf("negative read length %d", n))
		return nil
	}
	if r.pos+n > len(r.data) {
		e := linkerr.New(linkerr.KindValidation, "equil.Reader", "payload truncated")
		e.Offset = r.pos
		e.Length = n
		r.err = e
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Byte reads a single byte
func (r *Reader) Byte() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

// Bytes reads n raw bytes
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Uint16LE reads a little-endian uint16
func (r *Reader) Uint16LE() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

// Uint32LE reads a little-endian uint32
func (r *Reader) Uint32LE() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// RateBE reads a high-byte-first rate in U/h
func (r *Reader) RateBE() float64 {
	if b := r.take(2); b != nil {
		return RateFromBytesBE([2]byte{b[0], b[1]})
	}
	return 0
}

// RateLE reads a low-byte-first rate in U/h
func (r *Reader) RateLE() float64 {
	if b := r.take(2); b != nil {
		return RateFromBytesLE([2]byte{b[0], b[1]})
	}
	return 0
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Err returns the first error encountered, if any
func (r *Reader) Err() error {
	return r.err
}
