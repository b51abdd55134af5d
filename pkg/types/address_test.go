package types

import (
	"encoding/hex"
	"encoding/json"
	"testing"
)

func testAddress() Address {
	var a Address
	a[0] = 0x02
	for i := 1; i < AddressSize; i++ {
		a[i] = byte(i)
	}
	return a
}

func TestAddress_StringRoundtrip(t *testing.T) {
	a := testAddress()
	s := a.String()
	if s[:5] != "aleo1" {
		t.Fatalf("String() = %q, want aleo1 prefix", s)
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != a {
		t.Errorf("parsed = %x, want %x", parsed, a)
	}
}

func TestParseAddress_Forms(t *testing.T) {
	a := testAddress()
	tests := []struct {
		name  string
		input string
	}{
		{"bech32", a.String()},
		{"visibility suffix", a.String() + ".private"},
		{"hex", hex.EncodeToString(a[:])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.input, err)
			}
			if got != a {
				t.Errorf("ParseAddress(%q) = %x, want %x", tt.input, got, a)
			}
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, s := range []string{"", "aleo1zzzz", "deadbeef", "not an address"} {
		if _, err := ParseAddress(s); err == nil {
			t.Errorf("ParseAddress(%q) should fail", s)
		}
	}
}

func TestAddress_JSON(t *testing.T) {
	a := testAddress()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Address
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != a {
		t.Errorf("got %x, want %x", got, a)
	}

	var empty Address
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("Unmarshal empty: %v", err)
	}
	if !empty.IsZero() {
		t.Error("empty string should decode to zero address")
	}
}
