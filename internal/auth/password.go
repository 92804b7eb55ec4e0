package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"tasker/internal/constants"
	"tasker/internal/workerpool"
)

var errMalformedHash = errors.New("malformed password hash")

// PasswordParams are the Argon2id cost parameters used for new hashes.
type PasswordParams struct {
	Memory      uint32 `yaml:"memory_kib"`
	Iterations  uint32 `yaml:"iterations"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"-"`
	KeyLength   uint32 `yaml:"-"`
}

// DefaultPasswordParams returns the stock Argon2id parameters.
func DefaultPasswordParams() PasswordParams {
	return PasswordParams{
		Memory:      constants.Argon2DefaultMemoryKiB,
		Iterations:  constants.Argon2DefaultIterations,
		Parallelism: constants.Argon2DefaultParallelism,
		SaltLength:  constants.Argon2SaltLength,
		KeyLength:   constants.Argon2KeyLength,
	}
}

// PasswordHasher hashes and verifies passwords on a bounded worker pool.
// New hashes are Argon2id in PHC string form; bcrypt hashes still verify.
type PasswordHasher struct {
	params PasswordParams
	pool   *workerpool.Pool
}

// NewPasswordHasher returns a hasher. A nil pool runs the work inline.
func NewPasswordHasher(params PasswordParams, pool *workerpool.Pool) *PasswordHasher {
	if params.SaltLength == 0 {
		params.SaltLength = constants.Argon2SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = constants.Argon2KeyLength
	}
	return &PasswordHasher{params: params, pool: pool}
}

// Hash returns the encoded Argon2id hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	type result struct {
		hash string
		err  error
	}
	r, err := runOn(ctx, h.pool, func() result {
		hash, err := hashArgon2id(password, h.params)
		return result{hash, err}
	})
	if err != nil {
		return "", err
	}
	return r.hash, r.err
}

// Verify reports whether password matches encoded. Mismatches and malformed
// or unknown encodings are false with a nil error; the error is only set when
// the work could not run (context done, pool closed).
func (h *PasswordHasher) Verify(ctx context.Context, password, encoded string) (bool, error) {
	return runOn(ctx, h.pool, func() bool {
		return verifyPassword(password, encoded)
	})
}

// NeedsRehash reports whether encoded was produced by another algorithm or
// with parameters other than the hasher's.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	params, _, _, err := decodeArgon2id(encoded)
	if err != nil {
		return true
	}
	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism
}

func runOn[T any](ctx context.Context, pool *workerpool.Pool, fn func() T) (T, error) {
	if pool == nil {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return fn(), nil
	}
	return workerpool.Run(ctx, pool, fn)
}

func verifyPassword(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

func hashArgon2id(password string, p PasswordParams) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func verifyArgon2id(password, encoded string) bool {
	p, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1
}

// decodeArgon2id parses $argon2id$v=19$m=..,t=..,p=..$salt$key.
func decodeArgon2id(encoded string) (PasswordParams, []byte, []byte, error) {
	var p PasswordParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, errMalformedHash
	}
	if p.Memory == 0 || p.Memory > constants.Argon2MaxMemoryKiB ||
		p.Iterations == 0 || p.Iterations > constants.Argon2MaxIterations ||
		p.Parallelism == 0 || p.Parallelism > constants.Argon2MaxParallelism {
		return p, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
