package models

import (
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletAddress string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Email         string    `gorm:"type:varchar(320);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserProfile) TableName() string { return "user_profiles" }
