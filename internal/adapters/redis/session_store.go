package redis

// Package redis provides the Redis-backed session store for the gateway.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-based session store for production use.
// Each session occupies three logical keys under a common prefix (access
// token, refresh token, serialized principal), written atomically in one
// pipeline so a partially written session is never observable. TTL is
// derived from the session expiry.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis session store with the default prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, prefix: "session:"}
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) userKey(id string) string    { return s.prefix + id + ":user" }
func (s *SessionStore) accessKey(id string) string  { return s.prefix + id + ":access_token" }
func (s *SessionStore) refreshKey(id string) string { return s.prefix + id + ":refresh_token" }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	// Tokens are persisted separately from the principal blob; the blob keeps
	// them too so a single GET restores the whole session.
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.userKey(sess.ID), data, ttl)
		pipe.Set(ctx, s.accessKey(sess.ID), sess.AccessToken, ttl)
		pipe.Set(ctx, s.refreshKey(sess.ID), sess.RefreshToken, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.userKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, domainauth.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		// Corrupt persisted state is indistinguishable from "never logged in":
		// purge it and report not found, never an error.
		if delErr := s.Delete(ctx, id); delErr != nil {
			return domainauth.Session{}, fmt.Errorf("purge corrupt session: %w", delErr)
		}
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	// A blob that parses but breaks the session invariant (missing role,
	// role outside the closed set) is purged the same way.
	if validateErr := sess.Validate(); validateErr != nil || sess.ID != id {
		if delErr := s.Delete(ctx, id); delErr != nil {
			return domainauth.Session{}, fmt.Errorf("purge invalid session: %w", delErr)
		}
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	// Redis TTL should handle expiry, but be defensive.
	if time.Now().After(sess.ExpiresAt) {
		if delErr := s.Delete(ctx, id); delErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", delErr)
		}
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.userKey(id), s.accessKey(id), s.refreshKey(id)).Err()
}
