// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package envelope

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

var zeroKey = make([]byte, KeySize)

func testKey(password string) []byte {
	k := DeriveKey(password)
	return k[:]
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey("pairing")
	b := DeriveKey("pairing")
	if a != b {
		t.Error("DeriveKey is not deterministic")
	}
	if a == DeriveKey("pairing2") {
		t.Error("different passwords derived the same key")
	}

	want := "F9F5CF73E6038B91418B0F090FDAF9DF1E9A40DC00799E42F837CC533864AEAC"
	if got := encodeHex(a[:]); got != want {
		t.Errorf("DeriveKey(\"pairing\") = %s, want %s", got, want)
	}
}

func TestGenerateIV(t *testing.T) {
	a, err := GenerateIV(IVSize)
	if err != nil {
		t.Fatalf("GenerateIV: %v", err)
	}
	b, err := GenerateIV(IVSize)
	if err != nil {
		t.Fatalf("GenerateIV: %v", err)
	}
	if len(a) != IVSize || len(b) != IVSize {
		t.Fatalf("lengths %d, %d", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Error("two IVs collided")
	}

	if iv, err := GenerateIV(0); err != nil || len(iv) != 0 {
		t.Errorf("GenerateIV(0) = %v, %v", iv, err)
	}
	if _, err := GenerateIV(-1); !errors.Is(err, linkerr.ErrArgument) {
		t.Errorf("GenerateIV(-1): got %v, want argument error", err)
	}
}

// Known answers from the GCM specification test cases 13 and 14
func TestDecrypt_KnownAnswer(t *testing.T) {
	zeroIV := strings.Repeat("00", IVSize)

	got, err := Decrypt(NewEnvelope(zeroIV, "530F8AFBC74536B9A963B4F1C4CB738B", ""), zeroKey)
	if err != nil {
		t.Fatalf("empty plaintext: %v", err)
	}
	if got != "" {
		t.Errorf("empty plaintext decrypted to %q", got)
	}

	got, err = Decrypt(NewEnvelope(zeroIV, "d0d1c8a799996bf0265b98b5d48ab919", "cea7403d4d606b6e074ec5d3baf39d18"), zeroKey)
	if err != nil {
		t.Fatalf("one block: %v", err)
	}
	if want := strings.Repeat("00", 16); got != want {
		t.Errorf("decrypted %s, want %s", got, want)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey("pairing")

	for _, pt := range [][]byte{
		{},
		{0x00},
		{0x01, 0x02, 0x03, 0xA7},
		bytes.Repeat([]byte{0x5A}, 100),
	} {
		env, err := Encrypt(key, pt)
		if err != nil {
			t.Fatalf("Encrypt(% X): %v", pt, err)
		}
		if len(*env.IV) != IVSize*2 || len(*env.Tag) != TagSize*2 || len(*env.Ciphertext) != len(pt)*2 {
			t.Errorf("unexpected field lengths: %s", env)
		}
		if *env.Tag != strings.ToUpper(*env.Tag) {
			t.Errorf("tag not uppercase: %s", *env.Tag)
		}

		got, err := Decrypt(env, key)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != encodeHex(pt) {
			t.Errorf("Decrypt = %q, want %q", got, encodeHex(pt))
		}
	}
}

func TestEncrypt_Randomized(t *testing.T) {
	key := testKey("pairing")
	pt := []byte{0x10, 0x20, 0x30}

	a, err := Encrypt(key, pt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt(key, pt)
	if err != nil {
		t.Fatal(err)
	}
	if *a.IV == *b.IV || *a.Ciphertext == *b.Ciphertext {
		t.Error("two encryptions of the same plaintext are identical")
	}

	c, err := Encrypt(testKey("other"), pt)
	if err != nil {
		t.Fatal(err)
	}
	if *c.Ciphertext == *a.Ciphertext {
		t.Error("different keys produced the same ciphertext")
	}
}

func TestEncrypt_Arguments(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		pt   []byte
	}{
		{"nil key", nil, []byte{1}},
		{"nil plaintext", zeroKey, nil},
		{"short key", make([]byte, 16), []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encrypt(tt.key, tt.pt)
			if !errors.Is(err, linkerr.ErrArgument) {
				t.Errorf("got %v, want argument error", err)
			}
		})
	}
}

func TestDecrypt_MissingFields(t *testing.T) {
	env, err := Encrypt(zeroKey, []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		field string
		strip func(*Envelope)
	}{
		{FieldIV, func(e *Envelope) { e.IV = nil }},
		{FieldTag, func(e *Envelope) { e.Tag = nil }},
		{FieldCiphertext, func(e *Envelope) { e.Ciphertext = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			e := *env
			tt.strip(&e)

			_, err := Decrypt(&e, zeroKey)
			var le *linkerr.Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *linkerr.Error, got %v", err)
			}
			if le.Kind != linkerr.KindValidation {
				t.Errorf("kind = %v, want validation", le.Kind)
			}
			if le.Field != tt.field {
				t.Errorf("field = %q, want %q", le.Field, tt.field)
			}
		})
	}
}

func TestOpen_ErrorsNameOperation(t *testing.T) {
	env, err := Encrypt(zeroKey, []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	noTag := *env
	noTag.Tag = nil

	_, openErr := Open(&noTag, zeroKey)
	_, decryptErr := Decrypt(&noTag, zeroKey)
	_, authErr := Open(env, testKey("wrong"))

	tests := []struct {
		name string
		err  error
		op   string
	}{
		{"open missing field", openErr, "envelope.Open"},
		{"decrypt missing field", decryptErr, "envelope.Decrypt"},
		{"open authentication", authErr, "envelope.Open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var le *linkerr.Error
			if !errors.As(tt.err, &le) {
				t.Fatalf("expected *linkerr.Error, got %v", tt.err)
			}
			if le.Op != tt.op {
				t.Errorf("op = %q, want %q", le.Op, tt.op)
			}
		})
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	env, err := Encrypt(zeroKey, []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		field string
		env   *Envelope
	}{
		{"short iv", FieldIV, NewEnvelope("0011", *env.Tag, *env.Ciphertext)},
		{"short tag", FieldTag, NewEnvelope(*env.IV, "00", *env.Ciphertext)},
		{"bad hex", FieldCiphertext, NewEnvelope(*env.IV, *env.Tag, "XYZ0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.env, zeroKey)
			var le *linkerr.Error
			if !errors.As(err, &le) || le.Kind != linkerr.KindValidation || le.Field != tt.field {
				t.Errorf("got %v, want validation error on %s", err, tt.field)
			}
		})
	}

	if _, err := Decrypt(nil, zeroKey); !errors.Is(err, linkerr.ErrArgument) {
		t.Errorf("nil envelope: got %v, want argument error", err)
	}
	if _, err := Decrypt(env, nil); !errors.Is(err, linkerr.ErrArgument) {
		t.Errorf("nil key: got %v, want argument error", err)
	}
}

func TestDecrypt_Authentication(t *testing.T) {
	key := testKey("pairing")
	env, err := Encrypt(key, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("wrong key", func(t *testing.T) {
		_, err := Decrypt(env, testKey("wrong"))
		if !errors.Is(err, linkerr.ErrAuthentication) {
			t.Errorf("got %v, want authentication error", err)
		}
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ct := []byte(*env.Ciphertext)
		if ct[0] == '0' {
			ct[0] = '1'
		} else {
			ct[0] = '0'
		}
		_, err := Decrypt(NewEnvelope(*env.IV, *env.Tag, string(ct)), key)
		if !errors.Is(err, linkerr.ErrAuthentication) {
			t.Errorf("got %v, want authentication error", err)
		}
	})

	t.Run("no key material in message", func(t *testing.T) {
		_, err := Decrypt(env, testKey("wrong"))
		if err == nil {
			t.Fatal("expected error")
		}
		if strings.Contains(err.Error(), encodeHex(key)) {
			t.Error("error message leaks the key")
		}
	})
}
