// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// BytesToHex formats b as uppercase hex. An empty buffer formats as EmptyHex.
func BytesToHex(b []byte) string {
	if len(b) == 0 {
		return EmptyHex
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

// HexToBytes parses a hex string in either case. The empty string parses to
// an empty buffer.
func HexToBytes(s string) ([]byte, error) {
	const op = "equil.HexToBytes"

	b, err := hex.DecodeString(s)
	if err == nil {
		return b, nil
	}

	var invalid hex.InvalidByteError
	if errors.As(err, &invalid) {
		e := linkerr.Wrap(linkerr.KindValidation, op, "invalid hex digit", err)
		e.Value = int(invalid)
		e.Offset = strings.IndexByte(s, byte(invalid))
		return nil, e
	}
	e := linkerr.Wrap(linkerr.KindValidation, op, "odd hex length", err)
	e.Length = len(s)
	return nil, e
}
