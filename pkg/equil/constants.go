// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package equil provides the field-level codecs used to build and parse
// Equil pump command frames: fixed-point basal rates, little/big-endian
// integers, hex conversion, and the continuation-bit fragment framing that
// carries sealed commands over the link.
package equil

// Rate scaling: rates travel as unsigned 16-bit counts of 1/160 U/h
const (
	RateScale      = 160
	secondsPerHour = 3600
	// RateUSPrecision is the number of fractional digits kept by DecodeRateToUS
	RateUSPrecision = 10
)

// Continuation byte layout
const (
	EndBit    = 0x80 // set on the last fragment (END/CONFIRM)
	IndexMask = 0x3F // low six bits carry the fragment index
)

// Fragment framing limits
const (
	MaxFragments     = IndexMask + 1
	DefaultChunkSize = 16
	MaxChunkSize     = 255
	fragmentOverhead = 3 // index byte, length byte, CRC-8
)

// EmptyHex is what BytesToHex returns for an empty buffer, so that an empty
// but present field is distinguishable from an absent one in logs
const EmptyHex = "<empty>"
