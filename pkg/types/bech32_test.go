package types

import (
	"bytes"
	"strings"
	"testing"
)

func TestBech32_Roundtrip(t *testing.T) {
	data := []byte{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0xea, 0x0c, 0xbe, 0x0a, 0xd1, 0xd9, 0xbc, 0x3f, 0x43, 0x05}

	encoded, err := Bech32Encode(AddressHRP, data)
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	if !strings.HasPrefix(encoded, "aleo1") {
		t.Errorf("encoded = %q, want aleo1 prefix", encoded)
	}

	hrp, decoded, err := Bech32Decode(encoded)
	if err != nil {
		t.Fatalf("Bech32Decode: %v", err)
	}
	if hrp != AddressHRP {
		t.Errorf("HRP = %q, want %q", hrp, AddressHRP)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded = %x, want %x", decoded, data)
	}
}

func TestBech32_LongPayload(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, 400)
	encoded, err := Bech32Encode(RecordHRP, data)
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	decoded, err := DecodeWithHRP(encoded, RecordHRP)
	if err != nil {
		t.Fatalf("DecodeWithHRP: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("long payload did not roundtrip")
	}
}

func TestBech32Decode_Errors(t *testing.T) {
	valid, err := Bech32Encode(AddressHRP, make([]byte, 20))
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	flipped := []byte(valid)
	last := len(flipped) - 1
	if flipped[last] == 'q' {
		flipped[last] = 'p'
	} else {
		flipped[last] = 'q'
	}

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "qpzry9x8gf2tvdw0"},
		{"too short", "aleo1qqq"},
		{"bad checksum", string(flipped)},
		{"mixed case", "Aleo" + valid[4:]},
		{"invalid char", "aleo1bbbbbbbbbb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Bech32Decode(tt.input); err == nil {
				t.Errorf("Bech32Decode(%q) should fail", tt.input)
			}
		})
	}
}

func TestDecodeWithHRP_Mismatch(t *testing.T) {
	encoded, err := Bech32Encode(ViewKeyHRP, make([]byte, 32))
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	if _, err := DecodeWithHRP(encoded, PrivateKeyHRP); err == nil {
		t.Error("expected HRP mismatch error")
	}
}

func TestBech32Encode_EmptyHRP(t *testing.T) {
	if _, err := Bech32Encode("", []byte{1}); err == nil {
		t.Error("expected error for empty HRP")
	}
}
