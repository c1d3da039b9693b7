// Package randstr generates random alphanumeric strings used as user IDs,
// short URL keys and visitor tokens.
//
// The generator does not guarantee uniqueness: callers check the produced
// value against their store and regenerate on collision.
package randstr

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the set of characters every generated string is drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns a string of exactly length characters, each drawn
// independently and uniformly from Alphabet using a cryptographically
// secure source. A non-positive length yields an empty string.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}

	return gonanoid.MustGenerate(Alphabet, length)
}
