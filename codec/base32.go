// Package codec provides the binary-to-text encodings used across the
// vault core: a Crockford-style base32 for the secret-key textual format,
// and a thin base64 wrapper for transport/persistence envelopes.
package codec

import "encoding/base32"

// Alphabet is the 32-symbol alphabet used to encode secret keys.
// It omits the visually ambiguous glyphs I, O, 1 and 0.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var base32Encoding = base32.NewEncoding(Alphabet).WithPadding(base32.NoPadding)

// Base32Encode encodes b using the secret-key alphabet, MSB-first,
// without padding.
func Base32Encode(b []byte) string {
	return base32Encoding.EncodeToString(b)
}

// Base32Decode decodes s, which must contain only characters from
// [Alphabet]. It returns an error if s contains any other character.
func Base32Decode(s string) ([]byte, error) {
	return base32Encoding.DecodeString(s)
}
