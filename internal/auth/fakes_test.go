package auth

import (
	"context"
	"sync"
)

// memStore is an in-memory UserStore and TokenStore with a settable clock.
type memStore struct {
	mu     sync.Mutex
	now    int64
	nextID int64
	userID int64
	users  map[string]memUser
	tokens map[int64]*memToken
}

type memUser struct {
	id   int64
	hash string
}

type memToken struct {
	id         int64
	userID     int64
	username   string
	sel        string
	verifyHash string
	renew      string
	expiresIn  int64
}

func newMemStore() *memStore {
	return &memStore{
		now:    1_700_000_000,
		users:  make(map[string]memUser),
		tokens: make(map[int64]*memToken),
	}
}

func (s *memStore) addUser(username, hash string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID++
	s.users[username] = memUser{id: s.userID, hash: hash}
	return s.userID
}

func (s *memStore) advance(secs int64) {
	s.mu.Lock()
	s.now += secs
	s.mu.Unlock()
}

func (s *memStore) liveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *memStore) FindUserPasswordHash(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return "", ErrNotFound
	}
	return u.hash, nil
}

func (s *memStore) InsertTokenSet(_ context.Context, t NewTokenSet) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(t)
}

func (s *memStore) insertLocked(t NewTokenSet) (int64, error) {
	u, ok := s.users[t.Username]
	if !ok {
		return 0, ErrNotFound
	}
	s.nextID++
	tok := &memToken{
		id:         s.nextID,
		userID:     u.id,
		username:   t.Username,
		sel:        t.Select,
		verifyHash: t.VerifyHash,
		renew:      t.Renew,
		expiresIn:  s.now + t.TTL,
	}
	s.tokens[tok.id] = tok
	return tok.expiresIn, nil
}

func (s *memStore) FindTokenBySelect(_ context.Context, sel string) (*StoredToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.sel == sel && t.expiresIn > s.now {
			return t.stored(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) FindTokenBySelectAndRenew(_ context.Context, sel, renew string, windowSecs int64) (*StoredToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.sel == sel && t.renew == renew && t.expiresIn+windowSecs > s.now {
			return t.stored(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) ReplaceTokenSet(_ context.Context, oldID int64, oldRenew string, next NewTokenSet) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tokens[oldID]
	if !ok || old.renew != oldRenew {
		return 0, ErrNotFound
	}
	delete(s.tokens, oldID)
	return s.insertLocked(next)
}

func (s *memStore) DeleteTokenSet(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[id]; !ok {
		return ErrNotFound
	}
	delete(s.tokens, id)
	return nil
}

func (t *memToken) stored() *StoredToken {
	return &StoredToken{ID: t.id, UserID: t.userID, Username: t.username, VerifyHash: t.verifyHash}
}

// accessStub answers access lookups from fixed tables keyed by public ids.
type accessStub struct {
	projects map[[2]int64]Access // {userID, project}
	folders  map[[3]int64]Access // {userID, project, folder}
	tasks    map[[4]int64]Access // {userID, project, folder, task}
}

func (a *accessStub) FindProjectAccess(_ context.Context, userID, p int64) (*Access, error) {
	if acc, ok := a.projects[[2]int64{userID, p}]; ok {
		return &acc, nil
	}
	return nil, ErrNotFound
}

func (a *accessStub) FindFolderAccess(_ context.Context, userID, p, f int64) (*Access, error) {
	if acc, ok := a.folders[[3]int64{userID, p, f}]; ok {
		return &acc, nil
	}
	return nil, ErrNotFound
}

func (a *accessStub) FindTaskAccess(_ context.Context, userID, p, f, t int64) (*Access, error) {
	if acc, ok := a.tasks[[4]int64{userID, p, f, t}]; ok {
		return &acc, nil
	}
	return nil, ErrNotFound
}
