package model

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is one credential lineage: the row a signed token pair points
// back to. Version is the rotation counter compared against the version
// claim of presented tokens.
type AuthToken struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      string     `gorm:"not null;uniqueIndex;size:36" json:"uuid"`
	UserID    int64      `gorm:"not null;index" json:"userId"`
	Version   int        `gorm:"not null" json:"-"`
	Name      *string    `gorm:"size:255" json:"name"`
	ExpiresAt *time.Time `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

func NewAuthToken(userID int64, version int, name *string, expiresAt *time.Time, now time.Time) *AuthToken {
	return &AuthToken{
		UUID:      uuid.NewString(),
		UserID:    userID,
		Version:   version,
		Name:      name,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
}
