// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package linkerr defines the error taxonomy shared by the pumplink codec
// packages.
//
// Callers react differently to each kind: transport code resends a frame on
// KindCoding or KindChecksum, while KindAuthentication is a security event and
// KindValidation / KindArgument are programming faults. Errors never carry key
// material, only field names, lengths, offsets and offending byte values.
package linkerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind represents the category of a codec failure
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in a codec package
	KindUnknown Kind = iota
	// KindCoding indicates an invalid 4b6b symbol (corrupted transmission)
	KindCoding
	// KindChecksum indicates a CRC trailer that does not match its data
	KindChecksum
	// KindValidation indicates malformed or missing input data
	KindValidation
	// KindAuthentication indicates an AEAD tag that failed to verify
	KindAuthentication
	// KindArgument indicates a caller contract violation (nil key, nil plaintext)
	KindArgument
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindCoding:
		return "coding"
	case KindChecksum:
		return "checksum"
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindArgument:
		return "argument"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Retryable reports whether a transport may resend the whole frame
func (k Kind) Retryable() bool {
	return k == KindCoding || k == KindChecksum
}

// Sentinel errors, one per kind, for use with errors.Is
var (
	ErrCoding         = errors.New("coding error")
	ErrChecksum       = errors.New("checksum mismatch")
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication failed")
	ErrArgument       = errors.New("invalid argument")
)

func (k Kind) sentinel() error {
	switch k {
	case KindCoding:
		return ErrCoding
	case KindChecksum:
		return ErrChecksum
	case KindValidation:
		return ErrValidation
	case KindAuthentication:
		return ErrAuthentication
	case KindArgument:
		return ErrArgument
	}
	return nil
}

// Error is a classified codec failure
type Error struct {
	Kind   Kind   // Category of failure
	Op     string // Operation that failed, e.g. "rileylink.Decode4b6b"
	Field  string // Offending field name, if any
	Value  int    // Offending byte or 6-bit group, -1 when not applicable
	Length int    // Offending length, size or count, -1 when not applicable
	Offset int    // Bit or byte offset of the offending value, -1 when not applicable
	Msg    string // Short description
	Err    error  // Underlying cause, if any
}

// New creates an Error with no offending value or offset
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Value: -1, Length: -1, Offset: -1}
}

// Wrap creates an Error around an underlying cause
func Wrap(kind Kind, op, msg string, err error) *Error {
	e := New(kind, op, msg)
	e.Err = err
	return e
}

// Missing creates a validation error for an absent field
func Missing(op, field string) *Error {
	e := New(KindValidation, op, "missing required field")
	e.Field = field
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Value >= 0 {
		fmt.Fprintf(&b, " (value 0x%02X)", e.Value)
	}
	if e.Length >= 0 {
		fmt.Fprintf(&b, " (length %d)", e.Length)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the error's kind
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf extracts the Kind of err, or KindUnknown when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
