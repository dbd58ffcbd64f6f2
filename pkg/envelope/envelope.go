// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package envelope seals pump command payloads with AES-256-GCM.
//
// An Envelope carries three independently transmitted hex strings: the
// 12-byte IV, the 16-byte authentication tag and the ciphertext. The 32-byte
// key is never part of the envelope. Decryption fails closed: a missing field
// is a validation error and a tag that does not verify is an authentication
// error, never corrupted plaintext.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Thermoquad/pumplink/pkg/equil"
	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// Sizes in bytes
const (
	KeySize = 32
	IVSize  = 12
	TagSize = 16
)

// Field names used in validation errors
const (
	FieldIV         = "iv"
	FieldTag        = "tag"
	FieldCiphertext = "ciphertext"
)

// Key is a symmetric AES-256 key
type Key [KeySize]byte

// Envelope is a sealed command payload. A nil field is absent; a non-nil
// empty Ciphertext is the valid encryption of an empty payload.
type Envelope struct {
	IV         *string `json:"iv,omitempty" yaml:"iv,omitempty"`
	Tag        *string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Ciphertext *string `json:"ciphertext,omitempty" yaml:"ciphertext,omitempty"`
}

// NewEnvelope builds an envelope with all three fields present
func NewEnvelope(iv, tag, ciphertext string) *Envelope {
	return &Envelope{IV: &iv, Tag: &tag, Ciphertext: &ciphertext}
}

// String renders the envelope for logs, marking absent fields
func (e *Envelope) String() string {
	field := func(s *string) string {
		switch {
		case s == nil:
			return "<absent>"
		case *s == "":
			return equil.EmptyHex
		}
		return *s
	}
	return fmt.Sprintf("iv=%s tag=%s ciphertext=%s", field(e.IV), field(e.Tag), field(e.Ciphertext))
}

// DeriveKey derives the pairing key from a password: SHA-256 of its UTF-8 bytes
func DeriveKey(password string) Key {
	return Key(sha256.Sum256([]byte(password)))
}

// GenerateIV returns n bytes from the system CSPRNG
func GenerateIV(n int) ([]byte, error) {
	if n < 0 {
		return nil, linkerr.New(linkerr.KindArgument, "envelope.GenerateIV", fmt.Sprintf("negative length %d", n))
	}
	iv := make([]byte, n)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("envelope.GenerateIV: %w", err)
	}
	return iv, nil
}

func newGCM(op string, key []byte) (cipher.AEAD, error) {
	if key == nil {
		return nil, linkerr.New(linkerr.KindArgument, op, "nil key")
	}
	if len(key) != KeySize {
		e := linkerr.New(linkerr.KindArgument, op, fmt.Sprintf("key must be %d bytes", KeySize))
		e.Length = len(key)
		return nil, e
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, linkerr.Wrap(linkerr.KindArgument, op, "invalid key", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, linkerr.Wrap(linkerr.KindArgument, op, "cipher setup failed", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext under key with a fresh random IV. A nil key or nil
// plaintext is an argument error; an empty non-nil plaintext is valid.
func Encrypt(key []byte, plaintext []byte) (*Envelope, error) {
	const op = "envelope.Encrypt"

	if plaintext == nil {
		return nil, linkerr.New(linkerr.KindArgument, op, "nil plaintext")
	}
	gcm, err := newGCM(op, key)
	if err != nil {
		return nil, err
	}

	iv, err := GenerateIV(IVSize)
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - TagSize
	return NewEnvelope(encodeHex(iv), encodeHex(sealed[split:]), encodeHex(sealed[:split])), nil
}

// Decrypt opens env with key and returns the plaintext as uppercase hex.
// An empty plaintext decrypts to "".
func Decrypt(env *Envelope, key []byte) (string, error) {
	pt, err := open("envelope.Decrypt", env, key)
	if err != nil {
		return "", err
	}
	return encodeHex(pt), nil
}

// Open opens env with key and returns the raw plaintext
func Open(env *Envelope, key []byte) ([]byte, error) {
	return open("envelope.Open", env, key)
}

func open(op string, env *Envelope, key []byte) ([]byte, error) {
	if env == nil {
		return nil, linkerr.New(linkerr.KindArgument, op, "nil envelope")
	}

	iv, tag, ct, err := env.fields(op)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(op, key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	pt, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, linkerr.Wrap(linkerr.KindAuthentication, op, "tag verification failed", err)
	}
	if pt == nil {
		pt = []byte{}
	}
	return pt, nil
}

// fields checks presence and size of each field, in IV, tag, ciphertext order
func (e *Envelope) fields(op string) (iv, tag, ct []byte, err error) {
	if iv, err = decodeField(op, FieldIV, e.IV, IVSize); err != nil {
		return nil, nil, nil, err
	}
	if tag, err = decodeField(op, FieldTag, e.Tag, TagSize); err != nil {
		return nil, nil, nil, err
	}
	if ct, err = decodeField(op, FieldCiphertext, e.Ciphertext, -1); err != nil {
		return nil, nil, nil, err
	}
	return iv, tag, ct, nil
}

// decodeField hex-decodes a present field; size < 0 accepts any length
func decodeField(op, name string, s *string, size int) ([]byte, error) {
	if s == nil {
		return nil, linkerr.Missing(op, name)
	}
	b, err := equil.HexToBytes(*s)
	if err != nil {
		e := linkerr.Wrap(linkerr.KindValidation, op, "invalid hex", err)
		e.Field = name
		return nil, e
	}
	if size >= 0 && len(b) != size {
		e := linkerr.New(linkerr.KindValidation, op, fmt.Sprintf("must be %d bytes", size))
		e.Field = name
		e.Length = len(b)
		return nil, e
	}
	return b, nil
}

func encodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
