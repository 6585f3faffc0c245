// Package fingerprint derives salted fingerprints of queue contents, so that
// a later state can be checked against an earlier one without keeping a copy
// of every value.
package fingerprint

import (
	"strconv"
	"strings"

	"github.com/alexedwards/argon2id"
)

// Params are lighter than argon2id.DefaultParams; fingerprints guard against
// accidental differences, not against offline attacks.
var Params = &argon2id.Params{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// encode joins values unambiguously by length-prefixing each of them.
func encode(values []string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(values)))
	for _, v := range values {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// Of returns a fingerprint of the ordered values.
func Of(values []string) (string, error) {
	return argon2id.CreateHash(encode(values), Params)
}

// Validate reports whether fingerprint is well formed.
func Validate(fingerprint string) error {
	_, _, _, err := argon2id.DecodeHash(fingerprint)
	return err
}

// Matches reports whether values are exactly those the fingerprint was
// taken of, in the same order.
func Matches(values []string, fingerprint string) (bool, error) {
	return argon2id.ComparePasswordAndHash(encode(values), fingerprint)
}
