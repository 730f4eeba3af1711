package store

import (
	"context"
	"errors"
	"time"

	"github.com/authkit/api/internal/model"
	"gorm.io/gorm"
)

type GormAuthTokenStore struct {
	db *gorm.DB
}

func NewGormAuthTokenStore(db *gorm.DB) *GormAuthTokenStore {
	return &GormAuthTokenStore{db: db}
}

func (s *GormAuthTokenStore) Create(ctx context.Context, token *model.AuthToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *GormAuthTokenStore) FindByUserAndUUID(ctx context.Context, userID int64, uuid string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND uuid = ?", userID, uuid).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Advance is the compare-and-swap step that makes rotation single-winner:
// the WHERE clause pins the version we read, so a concurrent rotation of
// the same lineage leaves RowsAffected at zero for the loser.
func (s *GormAuthTokenStore) Advance(ctx context.Context, token *model.AuthToken, expiresAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&model.AuthToken{}).
		Where("id = ? AND version = ?", token.ID, token.Version).
		Updates(map[string]interface{}{
			"version":    token.Version + 1,
			"expires_at": expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	token.Version++
	token.ExpiresAt = &expiresAt
	return nil
}

func (s *GormAuthTokenStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&model.AuthToken{}, id).Error
}

func (s *GormAuthTokenStore) DeleteAllForUser(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.AuthToken{}).Error
}

func (s *GormAuthTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&model.AuthToken{})
	return result.RowsAffected, result.Error
}
