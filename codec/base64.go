package codec

import "encoding/base64"

// B64Encode encodes b as standard padded base64, used for the
// wrapped-vault-key and item-ciphertext envelopes on the wire.
func B64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// B64Decode decodes standard padded base64 text.
func B64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
