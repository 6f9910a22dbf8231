package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(id string) domainauth.Session {
	return domainauth.Session{
		ID:           id,
		UserID:       "user-123",
		Email:        "guard@campus.edu",
		DisplayName:  "Gate Guard",
		Role:         domainauth.RoleSecurity,
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-1")

	err := store.Save(ctx, session)
	require.NoError(t, err)

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.Equal(t, session.DisplayName, retrieved.DisplayName)
	assert.Equal(t, session.Role, retrieved.Role)
	assert.Equal(t, session.AccessToken, retrieved.AccessToken)
	assert.Equal(t, session.RefreshToken, retrieved.RefreshToken)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSessionStore_SaveWritesAllThreeKeys(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "sess:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("k3")))

	assert.Equal(t, int64(1), client.Exists(ctx, "sess:k3:user").Val())
	assert.Equal(t, "access-abc", client.Get(ctx, "sess:k3:access_token").Val())
	assert.Equal(t, "refresh-def", client.Get(ctx, "sess:k3:refresh_token").Val())
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "non-existent")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_GetEmptyID(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("test-session-delete")))

	_, err := store.Get(ctx, "test-session-delete")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "test-session-delete"))

	_, err = store.Get(ctx, "test-session-delete")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// Token keys go away with the blob.
	assert.Equal(t, int64(0), client.Exists(ctx,
		"session:test-session-delete:access_token",
		"session:test-session-delete:refresh_token").Val())
}

func TestSessionStore_DeleteIdempotent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "never-existed"))
	require.NoError(t, store.Delete(ctx, "never-existed"))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_CorruptBlobPurged(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	// Write garbage directly where the principal blob lives.
	require.NoError(t, client.Set(ctx, "session:corrupt:user", "{not json", time.Minute).Err())

	_, err := store.Get(ctx, "corrupt")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// The corrupt entry is purged: a second load also reports not found and
	// the key is gone.
	_, err = store.Get(ctx, "corrupt")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Equal(t, int64(0), client.Exists(ctx, "session:corrupt:user").Val())
}

func TestSessionStore_MissingRolePurged(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	// Valid JSON but the role field is missing: violates the session
	// invariant, treated exactly like corruption.
	blob := `{"id":"norole","user_id":"u1","email":"x@campus.edu","expires_at":"2099-01-01T00:00:00Z"}`
	require.NoError(t, client.Set(ctx, "session:norole:user", blob, time.Minute).Err())

	_, err := store.Get(ctx, "norole")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Equal(t, int64(0), client.Exists(ctx, "session:norole:user").Val())
}

func TestSessionStore_UnknownRolePurged(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	blob := `{"id":"badrole","user_id":"u1","email":"x@campus.edu","role":"student","expires_at":"2099-01-01T00:00:00Z"}`
	require.NoError(t, client.Set(ctx, "session:badrole:user", blob, time.Minute).Err())

	_, err := store.Get(ctx, "badrole")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Equal(t, int64(0), client.Exists(ctx, "session:badrole:user").Val())
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-ttl")
	session.ExpiresAt = time.Now().Add(100 * time.Millisecond)

	require.NoError(t, store.Save(ctx, session))

	time.Sleep(200 * time.Millisecond)

	_, err := store.Get(ctx, "test-session-ttl")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_SaveInvalidSession(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	noID := testSession("")
	err := store.Save(ctx, noID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session")

	noRole := testSession("no-role")
	noRole.Role = ""
	err = store.Save(ctx, noRole)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session")
}

func TestSessionStore_SaveExpiredSession(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("expired-session")
	session.ExpiresAt = time.Now().Add(-1 * time.Hour)

	err := store.Save(ctx, session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is expired")
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-prefix:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("prefix-test")))

	exists := client.Exists(ctx, "test-prefix:prefix-test:user").Val()
	assert.Equal(t, int64(1), exists)

	retrieved, err := store.Get(ctx, "prefix-test")
	require.NoError(t, err)
	assert.Equal(t, "prefix-test", retrieved.ID)
}
