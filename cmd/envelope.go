// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumplink/internal/logging"
	"github.com/Thermoquad/pumplink/pkg/envelope"
	"github.com/Thermoquad/pumplink/pkg/equil"
	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

var (
	sealCBOR      bool
	sealFragment  bool
	sealChunkSize int

	openIV         string
	openTag        string
	openCiphertext string
	openCBOR       string
	openBinary     string
	openFragments  []string
)

var sealCmd = &cobra.Command{
	Use:   "seal <hex-payload>",
	Short: "Encrypt a command payload into an envelope",
	Long: `Encrypt a command payload with AES-256-GCM under the pairing key.

The key is the SHA-256 of the pairing password, read from PUMPLINK_PASSWORD or
prompted interactively. Each run uses a fresh random IV, so sealing the same
payload twice gives different output.

Output is the envelope as three hex fields (iv, tag, ciphertext). Use --cbor
for the integer-keyed CBOR form used by the WebSocket bridge, and --fragment
to split iv||tag||ciphertext into link fragments, each shown with its radio
frame.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeal,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Decrypt an envelope",
	Long: `Decrypt an envelope and print the plaintext as hex.

The envelope is given either as separate --iv, --tag and --ciphertext fields,
as CBOR (--cbor), as iv||tag||ciphertext bytes (--binary), or as the radio
frames printed by "seal --fragment" (--fragments, in order). Each radio
frame is 4b6b decoded and CRC checked before its fragment is reassembled.
A field that is not given is absent, and decryption reports it by name. An empty ciphertext
(--ciphertext "") is valid and decrypts to an empty payload.

A wrong password or tampered data fails authentication; corrupted plaintext is
never printed.`,
	Args: cobra.NoArgs,
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(sealCmd)
	rootCmd.AddCommand(openCmd)

	sealCmd.Flags().BoolVar(&sealCBOR, "cbor", false, "Also print the CBOR wire form")
	sealCmd.Flags().BoolVar(&sealFragment, "fragment", false, "Also print link fragments and their radio frames")
	sealCmd.Flags().IntVar(&sealChunkSize, "chunk-size", 0, "Fragment data size (default from config, 16)")

	openCmd.Flags().StringVar(&openIV, "iv", "", "IV (hex)")
	openCmd.Flags().StringVar(&openTag, "tag", "", "Authentication tag (hex)")
	openCmd.Flags().StringVar(&openCiphertext, "ciphertext", "", "Ciphertext (hex)")
	openCmd.Flags().StringVar(&openCBOR, "cbor", "", "Envelope in CBOR form (hex)")
	openCmd.Flags().StringVar(&openBinary, "binary", "", "Envelope as iv||tag||ciphertext (hex)")
	openCmd.Flags().StringSliceVar(&openFragments, "fragments", nil, "Radio frames from seal --fragment (hex, comma separated or repeated)")
	openCmd.MarkFlagsMutuallyExclusive("cbor", "binary", "fragments", "iv")
	openCmd.MarkFlagsMutuallyExclusive("cbor", "binary", "fragments", "tag")
	openCmd.MarkFlagsMutuallyExclusive("cbor", "binary", "fragments", "ciphertext")
}

// pairingKey derives the envelope key from the pairing password
func pairingKey() ([]byte, error) {
	password, err := promptPassword("Pairing password: ")
	if err != nil {
		return nil, err
	}
	key := envelope.DeriveKey(password)
	return key[:], nil
}

func runSeal(cmd *cobra.Command, args []string) error {
	payload, err := equil.HexToBytes(args[0])
	if err != nil {
		return err
	}
	key, err := pairingKey()
	if err != nil {
		return err
	}

	chunk := cfg.FragmentSize
	if cmd.Flags().Changed("chunk-size") {
		chunk = sealChunkSize
	}
	return sealPayload(cmd.OutOrStdout(), key, payload, sealCBOR, sealFragment, chunk)
}

func sealPayload(w io.Writer, key, payload []byte, withCBOR, withFragments bool, chunk int) error {
	env, err := envelope.Encrypt(key, payload)
	if err != nil {
		logging.LogCodecError(err)
		return err
	}

	fmt.Fprintf(w, "IV:         %s\n", *env.IV)
	fmt.Fprintf(w, "Tag:        %s\n", *env.Tag)
	ct := *env.Ciphertext
	if ct == "" {
		ct = equil.EmptyHex
	}
	fmt.Fprintf(w, "Ciphertext: %s\n", ct)

	if withCBOR {
		data, err := cbor.Marshal(env)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "CBOR:       %s\n", equil.BytesToHex(data))
	}

	if withFragments {
		data, err := env.MarshalBinary()
		if err != nil {
			return err
		}
		frags, err := equil.Split(data, chunk)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nFragments (%d, chunk size %d):\n", len(frags), chunk)
		for _, f := range frags {
			wire := f.Bytes()
			frame, err := rileylink.EncodePacket(wire)
			if err != nil {
				return fmt.Errorf("fragment %d: %w", f.Index(), err)
			}
			marker := ""
			if f.IsEnd() {
				marker = " END"
			}
			fmt.Fprintf(w, "  [%02d%s] %s\n", f.Index(), marker, equil.BytesToHex(wire))
			fmt.Fprintf(w, "       radio: %s\n", equil.BytesToHex(frame))
		}
	}
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	env, err := envelopeFromFlags(cmd)
	if err != nil {
		return err
	}
	key, err := pairingKey()
	if err != nil {
		return err
	}
	return openEnvelope(cmd.OutOrStdout(), env, key)
}

// envelopeFromFlags builds the envelope from whichever input form was given.
// Field flags that were not set stay absent.
func envelopeFromFlags(cmd *cobra.Command) (*envelope.Envelope, error) {
	flags := cmd.Flags()
	env := &envelope.Envelope{}

	switch {
	case flags.Changed("cbor"):
		data, err := equil.HexToBytes(openCBOR)
		if err != nil {
			return nil, err
		}
		if err := cbor.Unmarshal(data, env); err != nil {
			return nil, err
		}

	case flags.Changed("binary"):
		data, err := equil.HexToBytes(openBinary)
		if err != nil {
			return nil, err
		}
		if err := env.UnmarshalBinary(data); err != nil {
			return nil, err
		}

	case flags.Changed("fragments"):
		data, err := reassembleFrames(openFragments)
		if err != nil {
			return nil, err
		}
		if err := env.UnmarshalBinary(data); err != nil {
			return nil, err
		}

	default:
		if flags.Changed("iv") {
			env.IV = &openIV
		}
		if flags.Changed("tag") {
			env.Tag = &openTag
		}
		if flags.Changed("ciphertext") {
			env.Ciphertext = &openCiphertext
		}
	}
	return env, nil
}

// reassembleFrames decodes radio frames in order and reassembles the
// fragments they carry
func reassembleFrames(frames []string) ([]byte, error) {
	r := equil.NewReassembler()
	for i, h := range frames {
		raw, err := equil.HexToBytes(h)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		packet, err := rileylink.DecodePacket(raw)
		if err != nil {
			logging.LogCodecError(err)
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		payload, done, err := r.Add(packet.Payload())
		if err != nil {
			logging.LogCodecError(err)
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if done {
			if i != len(frames)-1 {
				return nil, fmt.Errorf("frame %d: END fragment before last frame", i)
			}
			return payload, nil
		}
	}
	return nil, fmt.Errorf("incomplete envelope: no END fragment in %d frames", len(frames))
}

func openEnvelope(w io.Writer, env *envelope.Envelope, key []byte) error {
	plaintext, err := envelope.Decrypt(env, key)
	if err != nil {
		logging.LogCodecError(err)
		return err
	}
	if plaintext == "" {
		fmt.Fprintln(w, "Plaintext: (empty)")
		return nil
	}
	fmt.Fprintf(w, "Plaintext: %s\n", plaintext)
	return nil
}
