package auth

import (
	"encoding/hex"
	"strings"
	"testing"

	"tasker/internal/constants"
)

func testMACKey(t *testing.T) MACKey {
	t.Helper()
	key, err := NewMACKey(constants.AuthDefaultMACKeyBytes)
	if err != nil {
		t.Fatalf("NewMACKey failed: %v", err)
	}
	return key
}

func TestNewMACKeyRejectsShortKeys(t *testing.T) {
	if _, err := NewMACKey(constants.AuthMACKeyMinBytes - 1); err == nil {
		t.Fatal("expected error for short mac key")
	}
	key, err := NewMACKey(constants.AuthMACKeyMinBytes)
	if err != nil {
		t.Fatalf("NewMACKey failed: %v", err)
	}
	if key.Size() != constants.AuthMACKeyMinBytes {
		t.Fatalf("expected size %d, got %d", constants.AuthMACKeyMinBytes, key.Size())
	}
}

func TestMACKeyStringIsRedacted(t *testing.T) {
	key := newMACKeyFromBytes([]byte(strings.Repeat("k", 64)))
	if strings.Contains(key.String(), "kkkk") {
		t.Fatalf("String leaked key material: %s", key.String())
	}
	if !strings.Contains(key.GoString(), "redacted") {
		t.Fatalf("GoString should be redacted, got %s", key.GoString())
	}
}

func TestHashToken(t *testing.T) {
	key := testMACKey(t)
	token := "abc123def456"
	hash := HashToken(key, token)

	if len(hash) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hash))
	}
	if _, err := hex.DecodeString(hash); err != nil {
		t.Fatalf("hash is not hex: %v", err)
	}
	if hash == token {
		t.Fatal("HashToken returned the token itself")
	}

	// Same input should produce same hash
	if HashToken(key, token) != hash {
		t.Fatal("HashToken is not deterministic")
	}

	// Different input should produce different hash
	if HashToken(key, "different_token") == hash {
		t.Fatal("HashToken produced same hash for different inputs")
	}
}

func TestHashTokenDependsOnKey(t *testing.T) {
	a := newMACKeyFromBytes([]byte(strings.Repeat("a", 64)))
	b := newMACKeyFromBytes([]byte(strings.Repeat("b", 64)))

	if HashToken(a, "token") == HashToken(b, "token") {
		t.Fatal("different keys produced the same hash")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !ConstantTimeEqual([]byte("same"), []byte("same")) {
		t.Fatal("equal inputs compared unequal")
	}
	if ConstantTimeEqual([]byte("same"), []byte("sane")) {
		t.Fatal("different inputs compared equal")
	}
	if ConstantTimeEqual([]byte("short"), []byte("shorter")) {
		t.Fatal("different lengths compared equal")
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	// 32 bytes is at most 43 base62 digits.
	if len(token) == 0 || len(token) > 43 {
		t.Fatalf("unexpected token length %d", len(token))
	}
	for _, c := range token {
		if !strings.ContainsRune(base62Alphabet, c) {
			t.Fatalf("token contains non-base62 char %q", c)
		}
	}
}

func TestGenerateTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d iterations", i)
		}
		seen[token] = true
	}
}

func TestGeneratePassword(t *testing.T) {
	password, err := GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword failed: %v", err)
	}
	if len(password) != constants.AuthPasswordGenLength {
		t.Fatalf("expected length %d, got %d", constants.AuthPasswordGenLength, len(password))
	}
	if err := ValidatePassword(password); err != nil {
		t.Fatalf("generated password fails validation: %v", err)
	}
}

func TestBase62Encode(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{0}, "0"},
		{[]byte{61}, "z"},
		{[]byte{62}, "10"},
		{[]byte{1, 0}, "48"},
	}
	for _, tt := range tests {
		if got := base62Encode(tt.in); got != tt.want {
			t.Errorf("base62Encode(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
