// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// BytesToInt16 assembles a 16-bit value from its high and low bytes. Values
// at or above 0x8000 have 0x8000 subtracted, folding the result into
// 0..0x7FFF. This is the pump's convention, not two's complement.
func BytesToInt16(hi, lo byte) int {
	v := int(hi)<<8 | int(lo)
	if v >= 0x8000 {
		v -= 0x8000
	}
	return v
}

// Uint32ToLE encodes v as 4 little-endian bytes
func Uint32ToLE(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), v)
}

// Uint32FromLE decodes the first 4 bytes of b as a little-endian uint32
func Uint32FromLE(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, shortBuffer("equil.Uint32FromLE", len(b), 4)
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint16ToLE encodes v as 2 little-endian bytes
func Uint16ToLE(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(make([]byte, 0, 2), v)
}

// Uint16FromLE decodes the first 2 bytes of b as a little-endian uint16
func Uint16FromLE(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, shortBuffer("equil.Uint16FromLE", len(b), 2)
	}
	return binary.LittleEndian.Uint16(b), nil
}

// CeilInt rounds x up toward positive infinity (CeilInt(-1.5) == -1)
func CeilInt(x float64) int {
	return int(math.Ceil(x))
}

func shortBuffer(op string, got, want int) error {
	e := linkerr.New(linkerr.KindValidation, op, fmt.Sprintf("buffer too short: %d bytes (need %d)", got, want))
	e.Length = got
	return e
}
