package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/zeebo/blake3"

	"tasker/internal/constants"
)

// base62Alphabet is used for human-friendly token encoding (no special chars).
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// MACKey is the process-wide secret for keyed token hashing. It is created
// once at startup and never persisted; restarting the process invalidates
// every issued verify token.
type MACKey struct {
	raw     []byte
	derived [32]byte
}

// NewMACKey reads size random bytes. Sizes below AuthMACKeyMinBytes are
// rejected.
func NewMACKey(size int) (MACKey, error) {
	if size < constants.AuthMACKeyMinBytes {
		return MACKey{}, fmt.Errorf("mac key must be at least %d bytes, got %d", constants.AuthMACKeyMinBytes, size)
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return MACKey{}, fmt.Errorf("failed to generate mac key: %w", err)
	}
	return newMACKeyFromBytes(raw), nil
}

func newMACKeyFromBytes(raw []byte) MACKey {
	k := MACKey{raw: raw}
	// BLAKE3 keyed mode takes exactly 32 bytes; derive them from the full key.
	blake3.DeriveKey(constants.AuthMACDeriveContext, raw, k.derived[:])
	return k
}

// Size returns the key length in bytes.
func (k MACKey) Size() int {
	return len(k.raw)
}

// String never prints key material.
func (k MACKey) String() string {
	return fmt.Sprintf("MACKey(%d bytes, redacted)", len(k.raw))
}

// GoString keeps %#v from printing the key either.
func (k MACKey) GoString() string {
	return k.String()
}

// HashToken computes the BLAKE3 keyed hash of a token for storage.
// The plaintext is never stored, only the hash.
func HashToken(key MACKey, token string) string {
	hasher, err := blake3.NewKeyed(key.derived[:])
	if err != nil {
		// Unreachable: derived is always 32 bytes.
		panic(err)
	}
	hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ConstantTimeEqual compares two secrets without leaking where they differ.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateToken returns AuthTokenRandomBytes of crypto/rand, base62 encoded.
func GenerateToken() (string, error) {
	encoded, err := generateBase62(constants.AuthTokenRandomBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return encoded, nil
}

// GeneratePassword creates a cryptographically secure random password.
// Uses a mix of lowercase, uppercase, digits, and special characters.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	length := constants.AuthPasswordGenLength

	password := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := range password {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password[i] = charset[idx.Int64()]
	}

	return string(password), nil
}

// generateBase62 generates random bytes and encodes them to base62.
func generateBase62(numBytes int) (string, error) {
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return base62Encode(randomBytes), nil
}

// base62Encode encodes raw bytes to a base62 string.
func base62Encode(data []byte) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(int64(len(base62Alphabet)))

	if num.Sign() == 0 {
		return string(base62Alphabet[0])
	}

	var result []byte
	zero := big.NewInt(0)
	mod := new(big.Int)

	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		result = append(result, base62Alphabet[mod.Int64()])
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}
