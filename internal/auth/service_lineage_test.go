package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/authkit/api/internal/model"
	"github.com/authkit/api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stores with real rotation semantics, for end-to-end lifecycle
// tests that span several operations.

type memoryTokenStore struct {
	mu     sync.Mutex
	nextID int64
	tokens map[int64]*model.AuthToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[int64]*model.AuthToken)}
}

func (s *memoryTokenStore) Create(_ context.Context, token *model.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	token.ID = s.nextID
	copied := *token
	s.tokens[token.ID] = &copied
	return nil
}

func (s *memoryTokenStore) FindByUserAndUUID(_ context.Context, userID int64, uuid string) (*model.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, token := range s.tokens {
		if token.UserID == userID && token.UUID == uuid {
			copied := *token
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memoryTokenStore) Advance(_ context.Context, token *model.AuthToken, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tokens[token.ID]
	if !ok || stored.Version != token.Version {
		return store.ErrVersionConflict
	}

	stored.Version++
	stored.ExpiresAt = &expiresAt
	token.Version = stored.Version
	token.ExpiresAt = &expiresAt
	return nil
}

func (s *memoryTokenStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, id)
	return nil
}

func (s *memoryTokenStore) DeleteAllForUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, token := range s.tokens {
		if token.UserID == userID {
			delete(s.tokens, id)
		}
	}
	return nil
}

func (s *memoryTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, token := range s.tokens {
		if token.ExpiresAt != nil && !token.ExpiresAt.After(now) {
			delete(s.tokens, id)
			count++
		}
	}
	return count, nil
}

type memoryUserStore struct {
	users map[string]*model.User
}

func (s *memoryUserStore) Create(_ context.Context, user *model.User) error {
	s.users[user.UUID] = user
	return nil
}

func (s *memoryUserStore) FindByUUID(_ context.Context, uuid string) (*model.User, error) {
	if user, ok := s.users[uuid]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memoryUserStore) Update(_ context.Context, user *model.User) error {
	s.users[user.UUID] = user
	return nil
}

func lineageService(t *testing.T) (*TokenService, *model.User, *memoryTokenStore) {
	t.Helper()

	user := testUser()
	users := &memoryUserStore{users: map[string]*model.User{user.UUID: user}}
	tokens := newMemoryTokenStore()

	return testService(tokens, users), user, tokens
}

// The full lifecycle from the outside: login, one legitimate rotation, then
// replay of the rotated-out refresh token, which must burn the whole lineage.
func TestRefreshTokenReuseRevokesLineage(t *testing.T) {
	service, user, _ := lineageService(t)
	ctx := context.Background()

	// login
	firstPair, _, err := service.CreateAndBuildTokenPair(ctx, user)
	require.NoError(t, err)

	// legitimate refresh with R1
	_, authToken, err := service.ValidateToken(ctx, firstPair.RefreshToken, ValidateOptions{ExpectRefreshToken: true})
	require.NoError(t, err)

	secondPair, err := service.RotateTokenPair(ctx, user, authToken)
	require.NoError(t, err)

	// A2 works while the lineage is intact
	_, _, err = service.ValidateToken(ctx, secondPair.AccessToken, ValidateOptions{})
	require.NoError(t, err)

	// replaying R1 is reuse: denied and lineage revoked
	_, _, err = service.ValidateToken(ctx, firstPair.RefreshToken, ValidateOptions{ExpectRefreshToken: true})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the legitimate holder of R2 is cut off too
	_, _, err = service.ValidateToken(ctx, secondPair.RefreshToken, ValidateOptions{ExpectRefreshToken: true})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// and so is A2
	_, _, err = service.ValidateToken(ctx, secondPair.AccessToken, ValidateOptions{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutEndsSingleSession(t *testing.T) {
	service, user, _ := lineageService(t)
	ctx := context.Background()

	firstPair, firstToken, err := service.CreateAndBuildTokenPair(ctx, user)
	require.NoError(t, err)

	secondPair, _, err := service.CreateAndBuildTokenPair(ctx, user)
	require.NoError(t, err)

	require.NoError(t, service.LogoutToken(ctx, firstToken))

	_, _, err = service.ValidateToken(ctx, firstPair.AccessToken, ValidateOptions{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the other session is untouched
	_, _, err = service.ValidateToken(ctx, secondPair.AccessToken, ValidateOptions{})
	assert.NoError(t, err)
}

func TestDeleteAllForUserInvalidatesEverything(t *testing.T) {
	service, user, _ := lineageService(t)
	ctx := context.Background()

	firstPair, _, err := service.CreateAndBuildTokenPair(ctx, user)
	require.NoError(t, err)

	secondPair, _, err := service.CreateAndBuildTokenPair(ctx, user)
	require.NoError(t, err)

	require.NoError(t, service.DeleteAllForUser(ctx, user))

	for _, token := range []string{firstPair.AccessToken, secondPair.AccessToken} {
		_, _, err = service.ValidateToken(ctx, token, ValidateOptions{})
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	for _, token := range []string{firstPair.RefreshToken, secondPair.RefreshToken} {
		_, _, err = service.ValidateToken(ctx, token, ValidateOptions{ExpectRefreshToken: true})
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestConcurrentRotationSingleWinner(t *testing.T) {
	service, user, _ := lineageService(t)
	ctx := context.Background()

	_, authToken, err := service.CreateAndBuildTokenPair(ctx, user)
	require.NoError(t, err)

	// both callers loaded the same snapshot of the record
	first := *authToken
	second := *authToken

	_, firstErr := service.RotateTokenPair(ctx, user, &first)
	_, secondErr := service.RotateTokenPair(ctx, user, &second)

	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, ErrUnauthorized)
}

func TestPurgeExpiredLeavesLiveRecords(t *testing.T) {
	service, user, tokens := lineageService(t)
	ctx := context.Background()

	// one expired, one live, one without time expiry
	expiredMinutes := -10
	_, err := service.CreateAuthToken(ctx, user, CreateOptions{ExpirationMinutes: &expiredMinutes})
	require.NoError(t, err)

	liveMinutes := 60
	live, err := service.CreateAuthToken(ctx, user, CreateOptions{ExpirationMinutes: &liveMinutes})
	require.NoError(t, err)

	name := "ci token"
	eternal, err := service.CreateAuthToken(ctx, user, CreateOptions{Name: &name})
	require.NoError(t, err)

	count, err := service.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = tokens.FindByUserAndUUID(ctx, user.ID, live.UUID)
	assert.NoError(t, err)
	_, err = tokens.FindByUserAndUUID(ctx, user.ID, eternal.UUID)
	assert.NoError(t, err)
}
