// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package equil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Thermoquad/pumplink/pkg/linkerr"
)

func sequential(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestSplit(t *testing.T) {
	frags, err := Split(sequential(40), 16)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(frags) != 3 {
		t.Fatalf("got %d fragments, want 3", len(frags))
	}

	wantHeaders := []byte{0x00, 0x01, 0x82}
	wantLens := []int{16, 16, 8}
	for i, f := range frags {
		if f.Header != wantHeaders[i] {
			t.Errorf("fragment %d header = 0x%02X, want 0x%02X", i, f.Header, wantHeaders[i])
		}
		if len(f.Data) != wantLens[i] {
			t.Errorf("fragment %d len = %d, want %d", i, len(f.Data), wantLens[i])
		}
		if f.Index() != i {
			t.Errorf("fragment %d Index() = %d", i, f.Index())
		}
		if f.IsEnd() != (i == 2) {
			t.Errorf("fragment %d IsEnd() = %v", i, f.IsEnd())
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	frags, err := Split(nil, DefaultChunkSize)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}
	if got := frags[0].Bytes(); !bytes.Equal(got, []byte{0x80, 0x00, 0x2F}) {
		t.Errorf("empty fragment = % X, want 80 00 2F", got)
	}
}

func TestFragment_Bytes(t *testing.T) {
	f := Fragment{Header: SetEnd(0), Data: []byte{0x01, 0x02}}
	if got := f.Bytes(); !bytes.Equal(got, []byte{0x80, 0x02, 0x01, 0x02, 0xEE}) {
		t.Errorf("Bytes() = % X, want 80 02 01 02 EE", got)
	}
}

func TestSplit_Limits(t *testing.T) {
	frags, err := Split(sequential(MaxFragments*4), 4)
	if err != nil {
		t.Fatalf("Split at max: %v", err)
	}
	if last := frags[len(frags)-1]; last.Header != 0xBF {
		t.Errorf("last header = 0x%02X, want 0xBF", last.Header)
	}

	if _, err := Split(sequential(MaxFragments*4+1), 4); !errors.Is(err, linkerr.ErrValidation) {
		t.Errorf("too many fragments: got %v, want validation error", err)
	}

	for _, size := range []int{0, -1, MaxChunkSize + 1} {
		if _, err := Split([]byte{1}, size); !errors.Is(err, linkerr.ErrArgument) {
			t.Errorf("chunk size %d: got %v, want argument error", size, err)
		}
	}
}

func TestReassembler_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 100, 255} {
		payload := sequential(n)
		frags, err := Split(payload, DefaultChunkSize)
		if err != nil {
			t.Fatalf("Split(%d): %v", n, err)
		}

		r := NewReassembler()
		var got []byte
		var done bool
		for i, f := range frags {
			got, done, err = r.Add(f.Bytes())
			if err != nil {
				t.Fatalf("n=%d: Add fragment %d: %v", n, i, err)
			}
			if done != (i == len(frags)-1) {
				t.Fatalf("n=%d: fragment %d done = %v", n, i, done)
			}
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("n=%d: reassembled % X", n, got)
		}
		if r.Pending() != 0 {
			t.Errorf("n=%d: reassembler not reset after END", n)
		}
	}
}

func TestReassembler_Errors(t *testing.T) {
	frags, err := Split(sequential(40), 16)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	t.Run("out of order", func(t *testing.T) {
		r := NewReassembler()
		_, _, err := r.Add(frags[1].Bytes())
		if !errors.Is(err, linkerr.ErrValidation) {
			t.Errorf("got %v, want validation error", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		r := NewReassembler()
		if _, _, err := r.Add(frags[0].Bytes()); err != nil {
			t.Fatalf("first fragment: %v", err)
		}
		if _, _, err := r.Add(frags[0].Bytes()); !errors.Is(err, linkerr.ErrValidation) {
			t.Errorf("got %v, want validation error", err)
		}
		if r.Pending() != 0 {
			t.Errorf("partial payload kept after error")
		}
	})

	t.Run("corrupt crc", func(t *testing.T) {
		frame := frags[0].Bytes()
		frame[3] ^= 0x01
		_, _, err := NewReassembler().Add(frame)
		if !errors.Is(err, linkerr.ErrChecksum) {
			t.Errorf("got %v, want checksum error", err)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		frame := frags[0].Bytes()
		frame = frame[:len(frame)-2]
		_, _, err := NewReassembler().Add(frame)
		if !errors.Is(err, linkerr.ErrValidation) {
			t.Errorf("got %v, want validation error", err)
		}
	})

	t.Run("too short", func(t *testing.T) {
		_, _, err := NewReassembler().Add([]byte{0x80, 0x00})
		if !errors.Is(err, linkerr.ErrValidation) {
			t.Errorf("got %v, want validation error", err)
		}
	})
}

func TestBuilderReader(t *testing.T) {
	payload := NewBuilder().
		Byte(0x01).
		Uint16LE(0x0203).
		Uint32LE(0x04050607).
		RateBE(1.0).
		RateLE(2.5).
		Bytes([]byte{0xAA, 0xBB}).
		Build()

	want := []byte{
		0x01,
		0x03, 0x02,
		0x07, 0x06, 0x05, 0x04,
		0x00, 0xA0,
		0x90, 0x01,
		0xAA, 0xBB,
	}
	if !bytes.Equal(payload, want) {
		t.Fatalf("Build() = % X\nwant     % X", payload, want)
	}

	r := NewReader(payload)
	if v := r.Byte(); v != 0x01 {
		t.Errorf("Byte() = 0x%02X", v)
	}
	if v := r.Uint16LE(); v != 0x0203 {
		t.Errorf("Uint16LE() = 0x%04X", v)
	}
	if v := r.Uint32LE(); v != 0x04050607 {
		t.Errorf("Uint32LE() = 0x%08X", v)
	}
	if v := r.RateBE(); v != 1.0 {
		t.Errorf("RateBE() = %v", v)
	}
	if v := r.RateLE(); v != 2.5 {
		t.Errorf("RateLE() = %v", v)
	}
	if v := r.Bytes(2); !bytes.Equal(v, []byte{0xAA, 0xBB}) {
		t.Errorf("Bytes(2) = % X", v)
	}
	if r.Remaining() != 0 || r.Err() != nil {
		t.Errorf("remaining=%d err=%v", r.Remaining(), r.Err())
	}

	if r.Byte() != 0 || !errors.Is(r.Err(), linkerr.ErrValidation) {
		t.Errorf("read past end: err=%v", r.Err())
	}
}

func TestReader_NegativeLength(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if b := r.Bytes(-1); b != nil {
		t.Errorf("Bytes(-1) = % X, want nil", b)
	}
	if !errors.Is(r.Err(), linkerr.ErrValidation) {
		t.Errorf("err = %v, want validation error", r.Err())
	}
	// The error is sticky
	if r.Byte() != 0 || r.Remaining() != 2 {
		t.Errorf("read after error: remaining=%d", r.Remaining())
	}
}
