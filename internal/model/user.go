package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID            string     `gorm:"not null;uniqueIndex;size:36" json:"uuid"`
	Name            string     `gorm:"not null;size:255" json:"name"`
	Email           string     `gorm:"not null;uniqueIndex;size:255" json:"email"`
	PasswordHash    string     `gorm:"not null;size:255" json:"-"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	IsAdmin         bool       `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// NewUser stamps the uuid and both timestamps; persistence never mutates them
// except UpdatedAt on save.
func NewUser(name, email, passwordHash string, now time.Time) *User {
	return &User{
		UUID:         uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
