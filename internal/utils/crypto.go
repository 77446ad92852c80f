// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

var hexAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress reports whether s is a well-formed wallet address.
// Mixed-case addresses must additionally carry a valid EIP-55
// checksum; all-lower and all-upper forms are accepted as-is.
func IsValidAddress(s string) bool {
	if !hexAddressPattern.MatchString(s) {
		return false
	}

	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}

	return ChecksumAddress(s) == s
}

// ChecksumAddress returns the EIP-55 checksummed form of an address.
func ChecksumAddress(s string) string {
	body := strings.ToLower(strings.TrimPrefix(s, "0x"))

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(body))
	hash := hasher.Sum(nil)

	out := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch >= 'a' && ch <= 'f' {
			nibble := hash[i/2]
			if i%2 == 0 {
				nibble >>= 4
			} else {
				nibble &= 0x0f
			}
			if nibble >= 8 {
				ch = ch - 'a' + 'A'
			}
		}
		out[i] = ch
	}

	return "0x" + string(out)
}

// NormalizeAddress checksums a syntactically valid address so the
// graph only ever stores one spelling per wallet.
func NormalizeAddress(s string) (string, error) {
	if !IsValidAddress(s) {
		return "", fmt.Errorf("invalid wallet address: %q", s)
	}
	return ChecksumAddress(s), nil
}

// CanonicalJSON serializes v with object keys sorted at every level,
// so the same logical document always hashes to the same bytes.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := writeCanonical(&b, generic); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func writeCanonical(b *strings.Builder, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(keyJSON)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil
	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		b.Write(raw)
		return nil
	}
}

// ContentHash is the sha256 of the canonical serialization, hex
// encoded with a 0x prefix as the protocol gateway expects.
func ContentHash(v interface{}) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "0x" + hex.EncodeToString(sum[:]), nil
}
