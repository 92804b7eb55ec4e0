package constants

import "time"

// Membership and global roles
const (
	RoleReadOnly    = 0
	RoleContributor = 1
	RoleOwner       = 2

	RoleMin = RoleReadOnly
	RoleMax = RoleOwner

	DefaultGlobalRole = RoleContributor
)

// Token configuration
const (
	AuthTokenRandomBytes   = 32 // 256 bits of entropy per token
	AuthMACKeyMinBytes     = 64
	AuthDefaultMACKeyBytes = 64
	AuthDefaultTokenTTL    = 7200 // seconds
	AuthMACDeriveContext   = "tasker 2020-12-12 token verify v1"
	AuthJanitorInterval    = 10 * time.Minute

	// Expired sets stay renewable this long before the janitor removes them.
	AuthDefaultRenewWindowHours = 720
)

// Password hashing (Argon2id)
const (
	Argon2DefaultMemoryKiB   = 64 * 1024
	Argon2DefaultIterations  = 3
	Argon2DefaultParallelism = 2
	Argon2SaltLength         = 16
	Argon2KeyLength          = 32
	Argon2MinMemoryKiB       = 8 * 1024

	// Ceilings for stored hashes and config. A hash asking for more fails
	// verification instead of pinning a worker.
	Argon2MaxMemoryKiB   = 1024 * 1024
	Argon2MaxIterations  = 16
	Argon2MaxParallelism = 16
)

// Password rules
const (
	AuthMinPasswordLength = 8
	AuthMaxPasswordLength = 128
	AuthPasswordGenLength = 24 // chars for auto-generated passwords
	AuthUsernameRegex     = `^[a-zA-Z0-9_.-]{3,64}$`
)

// Auth responses. Every failure of one kind returns the same message.
const (
	AuthInvalidTokensMessage      = "invalid tokens"
	AuthInvalidCredentialsMessage = "invalid username or password"
)
