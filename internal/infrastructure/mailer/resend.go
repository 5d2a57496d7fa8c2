package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crypto-invoice.backend/internal/domain/entities"
)

const DefaultResendURL = "https://api.resend.com/emails"

// ProviderError is a non-2xx answer from the mail API. Body is passed through untouched.
type ProviderError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("mail provider responded %d: %s", e.StatusCode, string(e.Body))
}

// ResendClient sends transactional e-mail through the Resend HTTP API
type ResendClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewResendClient(apiKey, endpoint string, timeout time.Duration) *ResendClient {
	if endpoint == "" {
		endpoint = DefaultResendURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send performs one blocking POST and returns the provider message id.
func (c *ResendClient) Send(ctx context.Context, email entities.Email) (string, error) {
	payload, err := json.Marshal(email)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: rawOrString(body)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	return out.ID, nil
}

// rawOrString keeps JSON bodies as-is and wraps anything else as a JSON string.
func rawOrString(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted)
}

func (e *ProviderError) HTTPStatus() int { return e.StatusCode }

func (e *ProviderError) ResponseBody() json.RawMessage { return e.Body }
