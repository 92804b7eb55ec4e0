// Package auth implements the three-token credential scheme (select, verify,
// renew), password hashing, per-project access resolution and the HTTP
// middleware that ties them together.
package auth

import "context"

// TokenSet is a freshly issued credential set. The plaintext verify and renew
// tokens exist only in this value; storage keeps a keyed hash of Verify.
type TokenSet struct {
	Select    string `json:"token_select"`
	Verify    string `json:"token_verify"`
	Renew     string `json:"token_renew"`
	ExpiresIn int64  `json:"expires_in"`
}

// NewTokenSet is the row written by InsertTokenSet and ReplaceTokenSet.
// TTL is in seconds; the store adds it to its own clock.
type NewTokenSet struct {
	Select     string
	VerifyHash string
	Renew      string
	Username   string
	TTL        int64
}

// StoredToken is a token row joined with its owner.
type StoredToken struct {
	ID         int64
	UserID     int64
	Username   string
	VerifyHash string
}

// Identity is the user behind a valid select/verify pair.
type Identity struct {
	UserID      int64
	Username    string
	TokenSelect string
}

// Access is the result of a membership join. FolderID and TaskID are zero
// when the lookup did not include them.
type Access struct {
	ProjectID int64
	FolderID  int64
	TaskID    int64
	Role      int
}

// UserStore looks up credentials.
type UserStore interface {
	// FindUserPasswordHash returns ErrNotFound when the user does not exist.
	FindUserPasswordHash(ctx context.Context, username string) (string, error)
}

// TokenStore persists token sets. Lookups return ErrNotFound on a miss.
type TokenStore interface {
	// InsertTokenSet stores t and returns the expiry computed by the store.
	InsertTokenSet(ctx context.Context, t NewTokenSet) (int64, error)
	// FindTokenBySelect ignores expired rows.
	FindTokenBySelect(ctx context.Context, tokenSelect string) (*StoredToken, error)
	// FindTokenBySelectAndRenew ignores rows expired for windowSecs or more.
	FindTokenBySelectAndRenew(ctx context.Context, tokenSelect, tokenRenew string, windowSecs int64) (*StoredToken, error)
	// ReplaceTokenSet atomically deletes the old row (only if it still carries
	// oldRenew) and inserts next. ErrNotFound means the old row was gone.
	ReplaceTokenSet(ctx context.Context, oldID int64, oldRenew string, next NewTokenSet) (int64, error)
	DeleteTokenSet(ctx context.Context, tokenID int64) error
}

// AccessStore resolves public ids under a user's membership in one query each.
type AccessStore interface {
	FindProjectAccess(ctx context.Context, userID, projectPubID int64) (*Access, error)
	FindFolderAccess(ctx context.Context, userID, projectPubID, folderPubID int64) (*Access, error)
	FindTaskAccess(ctx context.Context, userID, projectPubID, folderPubID, taskPubID int64) (*Access, error)
}
