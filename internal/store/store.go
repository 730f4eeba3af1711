package store

import (
	"context"
	"errors"
	"time"

	"github.com/authkit/api/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by Advance when the row's version no
	// longer matches the expected one (a concurrent rotation won).
	ErrVersionConflict = errors.New("auth token version conflict")
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type AuthTokenStore interface {
	Create(ctx context.Context, token *model.AuthToken) error
	FindByUserAndUUID(ctx context.Context, userID int64, uuid string) (*model.AuthToken, error)
	// Advance bumps the rotation counter by one and refreshes the expiry,
	// conditional on the version still being token.Version. On success the
	// passed token is updated in place.
	Advance(ctx context.Context, token *model.AuthToken, expiresAt time.Time) error
	Delete(ctx context.Context, id int64) error
	DeleteAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
