// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	rateScale = decimal.NewFromInt(RateScale)
	rateUS    = decimal.NewFromInt(RateScale * secondsPerHour)
)

// EncodeRateFromUH converts a rate in U/h to its fixed-point wire value,
// round(rate * 160). Negative rates encode as 0 and rates beyond the 16-bit
// range saturate at 0xFFFF.
func EncodeRateFromUH(rate float64) uint16 {
	v := math.Round(rate * RateScale)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

// DecodeRateToUH converts a wire value back to U/h in float precision
func DecodeRateToUH(v uint16) float64 {
	return float64(v) / RateScale
}

// DecodeRateToUHDecimal converts a wire value to U/h exactly.
// v/160 always terminates, so no rounding takes place.
func DecodeRateToUHDecimal(v uint16) decimal.Decimal {
	return decimal.NewFromInt(int64(v)).Div(rateScale)
}

// DecodeRateToUS converts a wire value to U/s (v/160/3600), truncated toward
// zero at RateUSPrecision fractional digits
func DecodeRateToUS(v uint16) decimal.Decimal {
	q, _ := decimal.NewFromInt(int64(v)).QuoRem(rateUS, RateUSPrecision)
	return q
}

// RateToBytesBE encodes a U/h rate high byte first
func RateToBytesBE(rate float64) [2]byte {
	v := EncodeRateFromUH(rate)
	return [2]byte{byte(v >> 8), byte(v)}
}

// RateToBytesLE encodes a U/h rate low byte first
func RateToBytesLE(rate float64) [2]byte {
	v := EncodeRateFromUH(rate)
	return [2]byte{byte(v), byte(v >> 8)}
}

// RateFromBytesBE decodes a high-byte-first rate to U/h
func RateFromBytesBE(b [2]byte) float64 {
	return DecodeRateToUH(uint16(b[0])<<8 | uint16(b[1]))
}

// RateFromBytesLE decodes a low-byte-first rate to U/h
func RateFromBytesLE(b [2]byte) float64 {
	return DecodeRateToUH(uint16(b[1])<<8 | uint16(b[0]))
}
