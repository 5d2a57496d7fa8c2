package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/infrastructure/models"
)

// UserProfileRepositoryImpl implements UserProfileRepository
type UserProfileRepositoryImpl struct {
	db *gorm.DB
}

func NewUserProfileRepository(db *gorm.DB) *UserProfileRepositoryImpl {
	return &UserProfileRepositoryImpl{db: db}
}

func (r *UserProfileRepositoryImpl) GetByWalletAddress(ctx context.Context, walletAddress string) (*entities.UserProfile, error) {
	var m models.UserProfile
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", entities.NormalizeAddress(walletAddress)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toProfileEntity(&m), nil
}

func (r *UserProfileRepositoryImpl) Upsert(ctx context.Context, walletAddress, email string) (*entities.UserProfile, error) {
	now := time.Now()
	m := &models.UserProfile{
		ID:            uuid.New(),
		WalletAddress: entities.NormalizeAddress(walletAddress),
		Email:         email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return nil, err
	}
	return r.GetByWalletAddress(ctx, m.WalletAddress)
}

func toProfileEntity(m *models.UserProfile) *entities.UserProfile {
	return &entities.UserProfile{
		ID:            m.ID,
		WalletAddress: m.WalletAddress,
		Email:         m.Email,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
