package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/store"
	"github.com/rathod-sahaab/elide/internal/user"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	pool := store.NewMemoryPool()
	logger := logging.NewLogger(true)
	b := bridge.New(pool, 2, 8, logger)
	t.Cleanup(b.Close)
	return NewService(b, NewMemorySessionStore(time.Hour), logger)
}

func register(t *testing.T, s *Service, username string) *user.User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterParams{
		Username:    username,
		DisplayName: "Test User",
		Email:       username + "@example.com",
		Password:    "hunter22",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterStoresTrimmedHash(t *testing.T) {
	s := newTestService(t)

	u := register(t, s, "alice")

	assert.Equal(t, "alice", u.Username)
	assert.NotContains(t, u.PasswordHash, "\x00")
	assert.Less(t, len(u.PasswordHash), EncodedHashLen)
	assert.NotContains(t, u.PasswordHash, "hunter22")
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cases := map[string]RegisterParams{
		"short username":   {Username: "ab", DisplayName: "A", Email: "a@example.com", Password: "hunter22"},
		"bad characters":   {Username: "Not Valid!", DisplayName: "A", Email: "a@example.com", Password: "hunter22"},
		"no display name":  {Username: "alice", DisplayName: "  ", Email: "a@example.com", Password: "hunter22"},
		"bad email":        {Username: "alice", DisplayName: "A", Email: "not-an-email", Password: "hunter22"},
		"short password":   {Username: "alice", DisplayName: "A", Email: "a@example.com", Password: "pw"},
		"email with angle": {Username: "alice", DisplayName: "A", Email: "A <a@example.com>", Password: "hunter22"},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Register(ctx, params)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestService(t)
	register(t, s, "alice")

	_, err := s.Register(context.Background(), RegisterParams{
		Username:    "alice",
		DisplayName: "Other",
		Email:       "other@example.com",
		Password:    "hunter22",
	})
	assert.ErrorIs(t, err, user.ErrDuplicateUsername)
}

func TestLoginMintsResolvableSession(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	created := register(t, s, "alice")

	u, token, err := s.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEmpty(t, token)

	userID, err := s.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, userID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	register(t, s, "alice")

	_, _, errUnknown := s.Login(ctx, "nobody", "hunter22")
	_, _, errWrongPw := s.Login(ctx, "alice", "wrong password")

	assert.ErrorIs(t, errUnknown, ErrUnauthorized)
	assert.ErrorIs(t, errWrongPw, ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLoginsGetDistinctTokens(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	register(t, s, "alice")

	_, first, err := s.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	_, second, err := s.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both stay valid until purged.
	_, err = s.Authenticate(ctx, first)
	assert.NoError(t, err)
	_, err = s.Authenticate(ctx, second)
	assert.NoError(t, err)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	register(t, s, "alice")

	_, token, err := s.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, token))

	_, err = s.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Logging out twice is harmless.
	assert.NoError(t, s.Logout(ctx, token))
}

func TestAuthenticateGarbageToken(t *testing.T) {
	s := newTestService(t)

	_, err := s.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateAccountRehashesPassword(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	created := register(t, s, "alice")

	newPw := "much better pw"
	updated, err := s.UpdateAccount(ctx, created.ID, UpdateAccountParams{Password: &newPw})
	require.NoError(t, err)
	assert.NotEqual(t, created.PasswordHash, updated.PasswordHash)
	assert.NotContains(t, updated.PasswordHash, "\x00")

	_, _, err = s.Login(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = s.Login(ctx, "alice", newPw)
	assert.NoError(t, err)
}

func TestDeleteAccountPurgesSession(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	created := register(t, s, "alice")

	_, token, err := s.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, created.ID, token))

	_, err = s.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Account(ctx, created.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestAvailabilityChecks(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	register(t, s, "alice")

	free, err := s.UsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = s.EmailAvailable(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = s.UsernameAvailable(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, free)
}
