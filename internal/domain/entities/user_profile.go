package entities

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds contact details for a wallet address.
type UserProfile struct {
	ID            uuid.UUID `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ConnectionState describes a connected wallet from the creator's point of view.
type ConnectionState string

const (
	ConnectionStateNoProfile  ConnectionState = "connected_no_profile"
	ConnectionStateHasProfile ConnectionState = "connected_has_profile"
)
