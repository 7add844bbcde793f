package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/portal/pkg/cryptox"
)

// Session is the persisted form of a login.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         json.RawMessage
}

// Sessions persists a Session as sealed values under the current and legacy
// key names.
type Sessions struct {
	store  Store
	sealer *cryptox.Sealer
}

func NewSessions(s Store, sealer *cryptox.Sealer) *Sessions {
	return &Sessions{store: s, sealer: sealer}
}

// Save writes every key of sess in one transaction.
func (s *Sessions) Save(ctx context.Context, sess Session) error {
	values := map[string][]byte{
		KeyAccessToken:     []byte(sess.AccessToken),
		KeyRefreshToken:    []byte(sess.RefreshToken),
		KeyUserProfile:     sess.User,
		LegacyKeyToken:     []byte(sess.AccessToken),
		LegacyKeyAuthToken: []byte(sess.AccessToken),
		LegacyKeyUser:      sess.User,
	}

	sealed := make(map[string][]byte, len(values))
	for name, v := range values {
		if len(v) == 0 {
			continue
		}
		out, err := s.sealer.Seal(v, name)
		if err != nil {
			return fmt.Errorf("seal %s: %w", name, err)
		}
		sealed[name] = out
	}

	return s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.Keys().Delete(ctx, AllKeys()...); err != nil {
			return err
		}
		for name, v := range sealed {
			if err := tx.Keys().Put(ctx, name, v); err != nil {
				return fmt.Errorf("put %s: %w", name, err)
			}
		}
		return nil
	})
}

// Load reads the persisted session. It returns ErrNotFound when no access
// token is stored and ErrCorrupt when a stored value cannot be opened.
// Values written only under legacy names are accepted.
func (s *Sessions) Load(ctx context.Context) (*Session, error) {
	access, err := s.first(ctx, KeyAccessToken, LegacyKeyToken, LegacyKeyAuthToken)
	if err != nil {
		return nil, err
	}

	sess := &Session{AccessToken: string(access)}

	refresh, err := s.first(ctx, KeyRefreshToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	sess.RefreshToken = string(refresh)

	user, err := s.first(ctx, KeyUserProfile, LegacyKeyUser)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(user) > 0 {
		sess.User = user
	}

	return sess, nil
}

// Clear removes every session key.
func (s *Sessions) Clear(ctx context.Context) error {
	return s.store.Keys().Delete(ctx, AllKeys()...)
}

func (s *Sessions) first(ctx context.Context, names ...string) ([]byte, error) {
	for _, name := range names {
		raw, err := s.store.Keys().Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		plain, err := s.sealer.Open(raw, name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w: %w", name, ErrCorrupt, err)
		}
		return plain, nil
	}
	return nil, ErrNotFound
}
