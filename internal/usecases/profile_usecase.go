package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	domainRepos "crypto-invoice.backend/internal/domain/repositories"
	"crypto-invoice.backend/internal/infrastructure/blockchain"
	"crypto-invoice.backend/pkg/logger"
)

type ProfileUsecase struct {
	profileRepo domainRepos.UserProfileRepository
	validate    *validator.Validate
}

func NewProfileUsecase(profileRepo domainRepos.UserProfileRepository) *ProfileUsecase {
	return &ProfileUsecase{profileRepo: profileRepo, validate: validator.New()}
}

type SaveProfileInput struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
}

func (uc *ProfileUsecase) GetProfile(ctx context.Context, walletAddress string) (*entities.UserProfile, error) {
	if !blockchain.IsValidAddress(walletAddress) {
		return nil, domainerrors.BadRequest("invalid wallet address")
	}
	profile, err := uc.profileRepo.GetByWalletAddress(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodeProfileNotFound, "profile not found")
		}
		logger.Error(ctx, "Failed to load profile", zap.Error(err))
		return nil, domainerrors.Failure("failed to load profile", err)
	}
	return profile, nil
}

// SaveProfile creates the profile or overwrites its e-mail.
func (uc *ProfileUsecase) SaveProfile(ctx context.Context, input SaveProfileInput) (*entities.UserProfile, error) {
	input.WalletAddress = strings.TrimSpace(input.WalletAddress)
	input.Email = strings.TrimSpace(input.Email)
	if err := uc.validate.Struct(input); err != nil {
		return nil, domainerrors.BadRequest("wallet address and a valid email are required")
	}
	if !blockchain.IsValidAddress(input.WalletAddress) {
		return nil, domainerrors.BadRequest("invalid wallet address")
	}

	profile, err := uc.profileRepo.Upsert(ctx, input.WalletAddress, input.Email)
	if err != nil {
		logger.Error(ctx, "Failed to save profile", zap.Error(err))
		return nil, domainerrors.Failure("failed to save profile", err)
	}
	logger.Info(ctx, "Profile saved", zap.String("wallet_address", profile.WalletAddress))
	return profile, nil
}
