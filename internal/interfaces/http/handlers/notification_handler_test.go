package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/usecases"
)

type notificationServiceStub struct {
	sendFn func(ctx context.Context, req *entities.EmailNotificationRequest) (string, error)
}

func (s notificationServiceStub) Send(ctx context.Context, req *entities.EmailNotificationRequest) (string, error) {
	return s.sendFn(ctx, req)
}

func newNotificationRouter(fn func(ctx context.Context, req *entities.EmailNotificationRequest) (string, error)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/send-email-notification", NewNotificationHandler(notificationServiceStub{sendFn: fn}).Handle)
	return r
}

func TestNotificationHandler_Methods(t *testing.T) {
	r := newNotificationRouter(nil)

	w := doJSON(r, http.MethodGet, "/send-email-notification", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" || body["message"] != "Email notification endpoint is running" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	if w := doJSON(r, http.MethodOptions, "/send-email-notification", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for OPTIONS, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPut, "/send-email-notification", "")
	if w.Code != http.StatusMethodNotAllowed || decodeBody(t, w)["error"] != "Only GET and POST methods allowed" {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestNotificationHandler_Post(t *testing.T) {
	const valid = `{"type":"payment_confirmation","invoice":{"id":"abc","amount":"10"},"creator_email":"c@test.io"}`

	t.Run("sent", func(t *testing.T) {
		r := newNotificationRouter(func(_ context.Context, req *entities.EmailNotificationRequest) (string, error) {
			if req.Type != entities.NotificationPaymentConfirmation || req.CreatorEmail != "c@test.io" {
				t.Fatalf("unexpected request %+v", req)
			}
			return "email-1", nil
		})
		w := doJSON(r, http.MethodPost, "/send-email-notification", valid)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["success"] != true || body["email_id"] != "email-1" || body["message"] != usecases.MsgEmailSent {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newNotificationRouter(nil)
		for _, body := range []string{`{`, ""} {
			w := doJSON(r, http.MethodPost, "/send-email-notification", body)
			if w.Code != http.StatusBadRequest || decodeBody(t, w)["error"] != "Invalid JSON body" {
				t.Fatalf("body %q: unexpected response %d %s", body, w.Code, w.Body.String())
			}
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newNotificationRouter(func(context.Context, *entities.EmailNotificationRequest) (string, error) {
			return "", domainerrors.BadRequest(usecases.MsgMissingFields)
		})
		w := doJSON(r, http.MethodPost, "/send-email-notification", `{}`)
		if w.Code != http.StatusBadRequest || decodeBody(t, w)["error"] != usecases.MsgMissingFields {
			t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("provider rejection keeps status", func(t *testing.T) {
		r := newNotificationRouter(func(context.Context, *entities.EmailNotificationRequest) (string, error) {
			return "", &usecases.DeliveryError{Status: http.StatusUnprocessableEntity, Details: json.RawMessage(`{"message":"bad from"}`)}
		})
		w := doJSON(r, http.MethodPost, "/send-email-notification", valid)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["error"] != usecases.MsgEmailSendFailed {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
		if details := body["details"].(map[string]interface{}); details["message"] != "bad from" {
			t.Fatalf("unexpected details %v", details)
		}
	})

	t.Run("server failure", func(t *testing.T) {
		r := newNotificationRouter(func(context.Context, *entities.EmailNotificationRequest) (string, error) {
			return "", domainerrors.Failure(usecases.MsgEmailServerFailure, errors.New("dial tcp: timeout"))
		})
		w := doJSON(r, http.MethodPost, "/send-email-notification", valid)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["error"] != usecases.MsgEmailServerFailure || body["details"] != "dial tcp: timeout" {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
	})
}
