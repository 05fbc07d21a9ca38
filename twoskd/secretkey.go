package twoskd

import (
	"fmt"
	"strings"

	"github.com/noro/vault-core/codec"
	"github.com/noro/vault-core/vaulterrors"
)

// SecretKeyBytes is the number of random bytes a secret key encodes (160 bits).
const SecretKeyBytes = 20

// secretKeyPrefix is the literal versioning tag prepended to every
// formatted secret key.
const secretKeyPrefix = "A3-"

// groupBounds are the byte offsets into the base32-encoded 32-symbol
// string at which each of the six hyphen-separated groups starts/ends:
// lengths 6,6,5,5,5,5.
var groupBounds = [][2]int{
	{0, 6},
	{6, 12},
	{12, 17},
	{17, 22},
	{22, 27},
	{27, 32},
}

// GenerateSecretKey draws 20 cryptographically random bytes and formats
// them as a secret-key text token, e.g.
// "A3-GGGGGG-GGGGGG-GGGGG-GGGGG-GGGGG-GGGGG".
func GenerateSecretKey() (string, error) {
	b, err := randBytes(SecretKeyBytes)
	if err != nil {
		return "", fmt.Errorf("twoskd: generate secret key: %w", err)
	}

	return FormatSecretKey(b), nil
}

// FormatSecretKey encodes raw (which must be [SecretKeyBytes] bytes) as a
// secret-key text token. It does not validate the length of raw; callers
// that need validated round-tripping should use [ParseSecretKey] on the
// result.
func FormatSecretKey(raw []byte) string {
	encoded := codec.Base32Encode(raw)

	groups := make([]string, 0, len(groupBounds))
	for _, bound := range groupBounds {
		groups = append(groups, encoded[bound[0]:bound[1]])
	}

	return secretKeyPrefix + strings.Join(groups, "-")
}

// ParseSecretKey parses a secret-key text token and returns its 20 raw
// bytes. It fails with [vaulterrors.ErrInvalidSecretKey] on any mismatch
// in prefix, group count, or alphabet.
func ParseSecretKey(text string) ([]byte, error) {
	if !strings.HasPrefix(text, secretKeyPrefix) {
		return nil, vaulterrors.New(vaulterrors.KindInvalidSecretKey, "missing A3- prefix")
	}

	parts := strings.Split(strings.TrimPrefix(text, secretKeyPrefix), "-")
	if len(parts) != 6 {
		return nil, vaulterrors.New(vaulterrors.KindInvalidSecretKey, fmt.Sprintf("expected 6 groups, got %d", len(parts)))
	}

	encoded := strings.Join(parts, "")

	raw, err := codec.Base32Decode(encoded)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindInvalidSecretKey, "invalid base32 encoding", err)
	}

	if len(raw) != SecretKeyBytes {
		return nil, vaulterrors.New(vaulterrors.KindInvalidSecretKey, fmt.Sprintf("expected %d decoded bytes, got %d", SecretKeyBytes, len(raw)))
	}

	return raw, nil
}
