// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package envelope

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

// CBOR map keys
const (
	cborKeyIV         = 0
	cborKeyTag        = 1
	cborKeyCiphertext = 2
)

var cborEnc = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalBinary returns iv(12) || tag(16) || ciphertext. All fields must be
// present and well formed.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	iv, tag, ct, err := e.fields("envelope.MarshalBinary")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, IVSize+TagSize+len(ct))
	out = append(out, iv...)
	out = append(out, tag...)
	return append(out, ct...), nil
}

// UnmarshalBinary parses iv(12) || tag(16) || ciphertext
func (e *Envelope) UnmarshalBinary(data []byte) error {
	if len(data) < IVSize+TagSize {
		ve := linkerr.New(linkerr.KindValidation, "envelope.UnmarshalBinary", "envelope too short")
		ve.Length = len(data)
		return ve
	}
	*e = *NewEnvelope(
		encodeHex(data[:IVSize]),
		encodeHex(data[IVSize:IVSize+TagSize]),
		encodeHex(data[IVSize+TagSize:]),
	)
	return nil
}

// MarshalCBOR encodes the envelope as a map with integer keys
// {0: iv, 1: tag, 2: ciphertext} holding byte strings. Absent fields are
// omitted from the map.
func (e *Envelope) MarshalCBOR() ([]byte, error) {
	const op = "envelope.MarshalCBOR"

	m := make(map[int][]byte, 3)
	for _, f := range []struct {
		key  int
		name string
		val  *string
		size int
	}{
		{cborKeyIV, FieldIV, e.IV, IVSize},
		{cborKeyTag, FieldTag, e.Tag, TagSize},
		{cborKeyCiphertext, FieldCiphertext, e.Ciphertext, -1},
	} {
		if f.val == nil {
			continue
		}
		b, err := decodeField(op, f.name, f.val, f.size)
		if err != nil {
			return nil, err
		}
		m[f.key] = b
	}
	return cborEnc.Marshal(m)
}

// UnmarshalCBOR decodes the integer-keyed map form. Missing keys leave the
// corresponding field absent; Decrypt reports them.
func (e *Envelope) UnmarshalCBOR(data []byte) error {
	var m map[int][]byte
	if err := cbor.Unmarshal(data, &m); err != nil {
		return linkerr.Wrap(linkerr.KindValidation, "envelope.UnmarshalCBOR", "failed to decode CBOR", err)
	}

	*e = Envelope{}
	if b, ok := m[cborKeyIV]; ok {
		s := encodeHex(b)
		e.IV = &s
	}
	if b, ok := m[cborKeyTag]; ok {
		s := encodeHex(b)
		e.Tag = &s
	}
	if b, ok := m[cborKeyCiphertext]; ok {
		s := encodeHex(b)
		e.Ciphertext = &s
	}
	return nil
}
