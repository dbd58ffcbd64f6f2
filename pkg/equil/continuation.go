// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

// IsEnd reports whether the END/CONFIRM bit (bit 7) is set
func IsEnd(b byte) bool {
	return b&EndBit != 0
}

// SetEnd sets the END bit, preserving the other 7 bits
func SetEnd(b byte) byte {
	return b | EndBit
}

// ClearStart clears the END bit (START/CONTINUE), preserving the other 7 bits
func ClearStart(b byte) byte {
	return b &^ EndBit
}

// Index extracts the 6-bit fragment index
func Index(b byte) int {
	return int(b & IndexMask)
}
