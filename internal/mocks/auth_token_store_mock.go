package mocks

import (
	"context"
	"time"

	"github.com/authkit/api/internal/model"
	"github.com/stretchr/testify/mock"
)

type AuthTokenStore struct{ mock.Mock }

func (m *AuthTokenStore) Create(ctx context.Context, token *model.AuthToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *AuthTokenStore) FindByUserAndUUID(ctx context.Context, userID int64, uuid string) (*model.AuthToken, error) {
	args := m.Called(ctx, userID, uuid)
	var token *model.AuthToken
	if v := args.Get(0); v != nil {
		token = v.(*model.AuthToken)
	}
	return token, args.Error(1)
}

func (m *AuthTokenStore) Advance(ctx context.Context, token *model.AuthToken, expiresAt time.Time) error {
	return m.Called(ctx, token, expiresAt).Error(0)
}

func (m *AuthTokenStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AuthTokenStore) DeleteAllForUser(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *AuthTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
