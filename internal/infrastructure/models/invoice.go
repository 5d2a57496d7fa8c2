package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type Invoice struct {
	ID                   uuid.UUID   `gorm:"type:uuid;primaryKey"`
	CreatorWalletAddress string      `gorm:"type:varchar(255);not null;index"`
	RecipientAddress     null.String `gorm:"type:varchar(255)"`
	RecipientEmail       null.String `gorm:"type:varchar(320)"`
	Amount               string      `gorm:"type:decimal(36,18);not null"`
	Description          string      `gorm:"type:text"`
	Status               string      `gorm:"type:varchar(20);not null;index"`
	PaymentHash          null.String `gorm:"type:varchar(255)"`
	ChainID              int64       `gorm:"not null"`
	TokenSymbol          string      `gorm:"type:varchar(20);not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ExpiresAt            null.Time `gorm:"index"`
}

func (Invoice) TableName() string { return "invoices" }
