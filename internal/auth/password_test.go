package auth

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"tasker/internal/workerpool"
)

// cheapParams keep Argon2id fast in tests.
var cheapParams = PasswordParams{Memory: 64, Iterations: 1, Parallelism: 1}

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	pool := workerpool.New(2)
	t.Cleanup(pool.Close)
	return NewPasswordHasher(cheapParams, pool)
}

func TestHashPasswordFormat(t *testing.T) {
	h := newTestHasher(t)
	password := "securePassword123!"

	hash, err := h.Hash(context.Background(), password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %s", hash)
	}
	if strings.Count(hash, "$") != 5 {
		t.Fatalf("expected 5 separators, got %s", hash)
	}

	other, err := h.Hash(context.Background(), password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if other == hash {
		t.Fatal("two hashes of one password share a salt")
	}
}

func TestVerifyPassword(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()
	password := "securePassword123!"

	hash, err := h.Hash(ctx, password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := h.Verify(ctx, password, hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed for correct password: ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify(ctx, "wrongPassword", hash)
	if err != nil || ok {
		t.Fatalf("Verify should fail for wrong password: ok=%v err=%v", ok, err)
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	h := newTestHasher(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacyPass1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}

	ok, err := h.Verify(context.Background(), "legacyPass1", string(legacy))
	if err != nil || !ok {
		t.Fatalf("bcrypt hash should verify: ok=%v err=%v", ok, err)
	}
	if !h.NeedsRehash(string(legacy)) {
		t.Fatal("bcrypt hash should need a rehash")
	}
}

func TestVerifyMalformedHashFailsClosed(t *testing.T) {
	h := newTestHasher(t)
	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$!!!",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=99999999,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=4000000000,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=17,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=200$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=0$c2FsdA$aGFzaA",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$5$rounds=5000$salt$hash",
	}
	for _, encoded := range malformed {
		ok, err := h.Verify(context.Background(), "anything", encoded)
		if err != nil || ok {
			t.Errorf("Verify(%q) = %v, %v; want false, nil", encoded, ok, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.Hash(context.Background(), "password123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h.NeedsRehash(hash) {
		t.Fatal("fresh hash should not need a rehash")
	}

	stronger := NewPasswordHasher(PasswordParams{Memory: 128, Iterations: 2, Parallelism: 1}, nil)
	if !stronger.NeedsRehash(hash) {
		t.Fatal("hash with weaker params should need a rehash")
	}
}

func TestHasherHonoursCancelledContext(t *testing.T) {
	h := NewPasswordHasher(cheapParams, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, "password123"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
