package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/usecases"
)

type profileServiceStub struct {
	getFn  func(ctx context.Context, wallet string) (*entities.UserProfile, error)
	saveFn func(ctx context.Context, input usecases.SaveProfileInput) (*entities.UserProfile, error)
}

func (s profileServiceStub) GetProfile(ctx context.Context, wallet string) (*entities.UserProfile, error) {
	return s.getFn(ctx, wallet)
}

func (s profileServiceStub) SaveProfile(ctx context.Context, input usecases.SaveProfileInput) (*entities.UserProfile, error) {
	return s.saveFn(ctx, input)
}

func TestProfileHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewProfileHandler(profileServiceStub{
		getFn: func(_ context.Context, wallet string) (*entities.UserProfile, error) {
			if wallet != testCreator {
				return nil, domainerrors.NotFound(domainerrors.CodeProfileNotFound, "Profile not found")
			}
			return &entities.UserProfile{WalletAddress: wallet, Email: "me@test.io"}, nil
		},
		saveFn: func(_ context.Context, in usecases.SaveProfileInput) (*entities.UserProfile, error) {
			if in.Email == "bad" {
				return nil, domainerrors.BadRequest("invalid email address")
			}
			return &entities.UserProfile{WalletAddress: in.WalletAddress, Email: in.Email}, nil
		},
	})
	r.GET("/profiles/:wallet", h.GetProfile)
	r.PUT("/profiles/:wallet", h.SaveProfile)

	w := doJSON(r, http.MethodGet, "/profiles/"+testCreator, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	profile := decodeBody(t, w)["profile"].(map[string]interface{})
	if profile["email"] != "me@test.io" {
		t.Fatalf("unexpected profile %v", profile)
	}

	if w := doJSON(r, http.MethodGet, "/profiles/"+testPayer, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/profiles/"+testCreator, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/profiles/"+testCreator, `{"email":"bad"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid email, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/profiles/"+testCreator, `{"email":"new@test.io"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
}
