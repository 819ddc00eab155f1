package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neexbeast/travel-vibes/internal/backend"
)

// Session persists the logged-in user and bearer token.
// It implements backend.TokenSource.
type Session struct {
	storage *Storage
}

// NewSession returns a Session stored in st.
func NewSession(st *Storage) *Session {
	return &Session{storage: st}
}

// Save stores the token and user of a fresh login.
func (s *Session) Save(ctx context.Context, sess backend.Session) error {
	b, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshaling user %s: %w", sess.User.ID, err)
	}
	if err := s.storage.Set(ctx, KeyAuthToken, sess.Token); err != nil {
		return err
	}
	return s.storage.Set(ctx, KeyAuthUser, string(b))
}

// Token returns the stored bearer token, empty when logged out.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, _, err := s.storage.Get(ctx, KeyAuthToken)
	return tok, err
}

// User returns the stored user, or nil when logged out.
func (s *Session) User(ctx context.Context) (*backend.User, error) {
	raw, ok, err := s.storage.Get(ctx, KeyAuthUser)
	if err != nil || !ok {
		return nil, err
	}
	var u backend.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("unmarshaling stored user: %w", err)
	}
	return &u, nil
}

// Clear logs out.
func (s *Session) Clear(ctx context.Context) error {
	return s.storage.Remove(ctx, KeyAuthToken, KeyAuthUser)
}
