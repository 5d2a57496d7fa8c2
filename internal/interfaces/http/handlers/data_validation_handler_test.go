package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/internal/domain/entities"
)

type dataValidationStub struct {
	validateFn func(ctx context.Context, req *entities.DataValidationRequest) (*entities.ApprovedCallRequest, *entities.ValidationErrors)
}

func (s dataValidationStub) Validate(ctx context.Context, req *entities.DataValidationRequest) (*entities.ApprovedCallRequest, *entities.ValidationErrors) {
	return s.validateFn(ctx, req)
}

func newDataValidationRouter(stub dataValidationStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/data-validation", NewDataValidationHandler(stub).Handle)
	return r
}

func TestDataValidationHandler_Methods(t *testing.T) {
	r := newDataValidationRouter(dataValidationStub{})

	if w := doJSON(r, http.MethodOptions, "/data-validation", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for OPTIONS, got %d", w.Code)
	}

	w := doJSON(r, http.MethodGet, "/data-validation", "")
	if w.Code != http.StatusOK || decodeBody(t, w)["status"] != "ok" {
		t.Fatalf("unexpected GET response %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodDelete, "/data-validation", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	if errs["method"] != "Only POST method allowed" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestDataValidationHandler_Post(t *testing.T) {
	r := newDataValidationRouter(dataValidationStub{
		validateFn: func(_ context.Context, req *entities.DataValidationRequest) (*entities.ApprovedCallRequest, *entities.ValidationErrors) {
			if req.RequestedInfo.Email != nil && strings.HasSuffix(*req.RequestedInfo.Email, "@example.com") {
				return nil, &entities.ValidationErrors{Email: "Example.com emails are not allowed"}
			}
			if req.RequestedInfo.Email != nil && *req.RequestedInfo.Email == "panic@test.io" {
				panic("boom")
			}
			return &entities.ApprovedCallRequest{Calls: req.Calls, ChainID: req.ChainID, Capabilities: req.Capabilities}, nil
		},
	})

	t.Run("malformed body", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/data-validation", `{`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if _, ok := decodeBody(t, w)["errors"].(map[string]interface{})["body"]; !ok {
			t.Fatalf("expected body error, got %s", w.Body.String())
		}

		if w := doJSON(r, http.MethodPost, "/data-validation", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty body, got %d", w.Code)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/data-validation", `{"requestedInfo":{"email":"a@example.com"},"calls":[]}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		errs := decodeBody(t, w)["errors"].(map[string]interface{})
		if errs["email"] != "Example.com emails are not allowed" {
			t.Fatalf("unexpected errors %v", errs)
		}
	})

	t.Run("approved echoes request", func(t *testing.T) {
		body := `{"requestedInfo":{"email":"ok@test.io"},"calls":[{"to":"0xabc","data":"0x","value":"0x0"}],"chainId":"0x14a34","capabilities":{"dataCallback":{}}}`
		w := doJSON(r, http.MethodPost, "/data-validation", body)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}
		var out struct {
			Request entities.ApprovedCallRequest `json:"request"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if string(out.Request.ChainID) != `"0x14a34"` {
			t.Fatalf("unexpected chain id %s", out.Request.ChainID)
		}
		if !strings.Contains(string(out.Request.Calls), "0xabc") {
			t.Fatalf("calls not echoed: %s", out.Request.Calls)
		}
	})

	t.Run("panic is reported as server error", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/data-validation", `{"requestedInfo":{"email":"panic@test.io"}}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		errs := decodeBody(t, w)["errors"].(map[string]interface{})
		if errs["server"] != "Server error validating data" {
			t.Fatalf("unexpected errors %v", errs)
		}
	})
}
