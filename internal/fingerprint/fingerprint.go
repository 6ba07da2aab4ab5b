// Package fingerprint derives content addresses for records that have no
// stable identifier of their own.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain separates these hashes from any other SHA-256 use.
// Bump the version suffix when the canonical form changes.
const Domain = "schedulesync/source-event/v1"

// Length is the number of hex characters kept from the digest.
const Length = 16

type Fingerprint string

func (f Fingerprint) String() string {
	return string(f)
}

// Of computes the fingerprint of a set of named fields. Key order does not
// matter and whitespace inside values is normalized.
func Of(fields map[string]string) Fingerprint {
	sum := sha256.New()
	sum.Write([]byte(Domain))
	sum.Write([]byte{0x00})
	sum.Write(Canonical(fields))

	return Fingerprint(hex.EncodeToString(sum.Sum(nil))[:Length])
}

// Canonical is the byte form that gets hashed: a JSON object with sorted
// keys, NFC-normalized strings and collapsed whitespace.
func Canonical(fields map[string]string) []byte {
	normalized := make(map[string]string, len(fields))
	for key, value := range fields {
		normalized[normalize(key)] = normalize(value)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// a map[string]string always encodes, keys come out sorted
	_ = enc.Encode(normalized)

	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
}

func normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
