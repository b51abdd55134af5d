package types

import (
	"fmt"
	"strings"
)

// HRPs used by the node for bech32-encoded values.
const (
	AddressHRP    = "aleo"
	PrivateKeyHRP = "apk"
	ViewKeyHRP    = "avk"
	RecordHRP     = "record"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// bech32Rev maps charset bytes to 5-bit values; -1 marks invalid input.
var bech32Rev = func() (rev [128]int8) {
	for i := range rev {
		rev[i] = -1
	}
	for i := 0; i < len(bech32Charset); i++ {
		rev[bech32Charset[i]] = int8(i)
	}
	return rev
}()

// Bech32Encode encodes data under hrp.
// There is no 90 character cap: record ciphertexts are longer than that.
func Bech32Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("bech32: empty HRP")
	}
	for i := 0; i < len(hrp); i++ {
		if hrp[i] < 33 || hrp[i] > 126 {
			return "", fmt.Errorf("bech32: invalid HRP character %q", hrp[i])
		}
	}

	groups, err := regroup(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32: %w", err)
	}
	sum := checksum(hrp, groups)

	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(groups) + len(sum))
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, g := range groups {
		sb.WriteByte(bech32Charset[g])
	}
	for _, g := range sum {
		sb.WriteByte(bech32Charset[g])
	}
	return sb.String(), nil
}

// Bech32Decode splits s into its HRP and payload, verifying the checksum.
func Bech32Decode(s string) (string, []byte, error) {
	if s == "" {
		return "", nil, fmt.Errorf("bech32: empty string")
	}
	lower := strings.ToLower(s)
	if lower != s && strings.ToUpper(s) != s {
		return "", nil, fmt.Errorf("bech32: mixed case")
	}

	sep := strings.LastIndexByte(lower, '1')
	if sep < 1 {
		return "", nil, fmt.Errorf("bech32: missing separator")
	}
	if sep+7 > len(lower) {
		return "", nil, fmt.Errorf("bech32: too short")
	}
	hrp, body := lower[:sep], lower[sep+1:]

	groups := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c >= 128 || bech32Rev[c] < 0 {
			return "", nil, fmt.Errorf("bech32: invalid character %q", c)
		}
		groups[i] = byte(bech32Rev[c])
	}
	if polymod(append(expandHRP(hrp), groups...)) != 1 {
		return "", nil, fmt.Errorf("bech32: invalid checksum")
	}

	data, err := regroup(groups[:len(groups)-6], 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: %w", err)
	}
	return hrp, data, nil
}

// DecodeWithHRP decodes s and requires its HRP to equal want.
func DecodeWithHRP(s, want string) ([]byte, error) {
	hrp, data, err := Bech32Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != want {
		return nil, fmt.Errorf("bech32: HRP %q, want %q", hrp, want)
	}
	return data, nil
}

func polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func expandHRP(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func checksum(hrp string, groups []byte) []byte {
	values := append(expandHRP(hrp), groups...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ 1
	out := make([]byte, 6)
	for i := range out {
		out[i] = byte(mod>>uint(5*(5-i))) & 31
	}
	return out
}

// regroup converts between bit group widths (8->5 for encoding, 5->8 for decoding).
func regroup(data []byte, from, to uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to)+1)

	for _, b := range data {
		if uint32(b)>>from != 0 {
			return nil, fmt.Errorf("invalid data byte %d", b)
		}
		acc = acc<<from | uint32(b)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}

	switch {
	case pad && bits > 0:
		out = append(out, byte(acc<<(to-bits)&maxv))
	case !pad && (bits >= from || acc<<(to-bits)&maxv != 0):
		return nil, fmt.Errorf("non-zero padding")
	}
	return out, nil
}
