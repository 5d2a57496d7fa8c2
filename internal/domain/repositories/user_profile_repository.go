package repositories

import (
	"context"

	"crypto-invoice.backend/internal/domain/entities"
)

// UserProfileRepository defines profile data operations keyed by lower-cased wallet address
type UserProfileRepository interface {
	GetByWalletAddress(ctx context.Context, walletAddress string) (*entities.UserProfile, error)
	// Upsert overwrites the e-mail of an existing profile instead of failing.
	Upsert(ctx context.Context, walletAddress, email string) (*entities.UserProfile, error)
}
