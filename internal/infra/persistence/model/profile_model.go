// Package model holds the GORM persistence models of the postgres gateway.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfileModel mirrors the 'profiles' table. Rows are provisioned by a trigger on 'credentials'.
type ProfileModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(255)"`
	Name      string    `gorm:"type:varchar(100)"`
	AvatarURL string    `gorm:"type:text"`
	TrustTier string    `gorm:"type:varchar(20);not null;default:NONE"`
	Role      string    `gorm:"type:varchar(20);not null;default:user"`
	IsBanned  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProfileModel) TableName() string {
	return "profiles"
}

// CredentialModel mirrors the 'credentials' table holding email/password logins.
type CredentialModel struct {
	UserID       uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Email        string            `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string            `gorm:"type:varchar(100);not null"`
	Metadata     map[string]string `gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (CredentialModel) TableName() string {
	return "credentials"
}
