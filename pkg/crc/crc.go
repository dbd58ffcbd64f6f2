// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package crc provides the integrity checksums used on pump links: the
// 8-bit Dallas/Maxim CRC that trails every radio packet and link fragment,
// and the 16-bit CRC used by Equil command frames.
package crc

import (
	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

// Tables are built once and only read afterwards
var (
	maximTable  = crc8.MakeTable(crc8.CRC8_MAXIM)     // poly 0x31 reflected (0x8C LSB-first), init 0x00
	modbusTable = crc16.MakeTable(crc16.CRC16_MODBUS) // poly 0x8005 reflected (0xA001), init 0xFFFF
)

// CRC8 computes the Dallas/Maxim CRC-8 checksum for the given data.
// Empty input yields 0x00.
func CRC8(data []byte) byte {
	return crc8.Checksum(data, maximTable)
}

// CRC16 computes the 16-bit CRC (seed 0xFFFF) for the given data and returns
// it big-endian. The result is always exactly two bytes.
func CRC16(data []byte) [2]byte {
	v := crc16.Checksum(data, modbusTable)
	return [2]byte{byte(v >> 8), byte(v)}
}

// AppendCRC8 returns data followed by its CRC-8 trailer
func AppendCRC8(data []byte) []byte {
	out := make([]byte, len(data), len(data)+1)
	copy(out, data)
	return append(out, CRC8(data))
}

// VerifyCRC8 checks that the last byte of frame is the CRC-8 of the rest
func VerifyCRC8(frame []byte) bool {
	if len(frame) < 1 {
		return false
	}
	n := len(frame) - 1
	return CRC8(frame[:n]) == frame[n]
}

// AppendCRC16 returns data followed by its big-endian CRC-16 trailer
func AppendCRC16(data []byte) []byte {
	sum := CRC16(data)
	out := make([]byte, len(data), len(data)+2)
	copy(out, data)
	return append(out, sum[0], sum[1])
}

// VerifyCRC16 checks that the last two bytes of frame are the CRC-16 of the rest
func VerifyCRC16(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 2
	sum := CRC16(frame[:n])
	return sum[0] == frame[n] && sum[1] == frame[n+1]
}
