package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/interfaces/http/response"
	"crypto-invoice.backend/internal/usecases"
)

type ProfileService interface {
	GetProfile(ctx context.Context, walletAddress string) (*entities.UserProfile, error)
	SaveProfile(ctx context.Context, input usecases.SaveProfileInput) (*entities.UserProfile, error)
}

type ProfileHandler struct {
	profileUsecase ProfileService
}

func NewProfileHandler(profileUsecase ProfileService) *ProfileHandler {
	return &ProfileHandler{profileUsecase: profileUsecase}
}

type SaveProfileRequest struct {
	Email string `json:"email" binding:"required"`
}

// GetProfile GET /api/v1/profiles/:wallet
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileUsecase.GetProfile(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}

// SaveProfile PUT /api/v1/profiles/:wallet
func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest("email is required"))
		return
	}

	profile, err := h.profileUsecase.SaveProfile(c.Request.Context(), usecases.SaveProfileInput{
		WalletAddress: c.Param("wallet"),
		Email:         req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}
