package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
)

const (
	attemptKeyPrefix = "invoice:attempt:"
	latchKeyPrefix   = "invoice:settle-latch:"
)

var (
	setAttemptValue = Set
	getAttemptValue = Get
	setLatchNX      = SetNX
	delLatch        = Del
)

// AttemptStore keeps payment attempts and their settlement latches in Redis.
// ttl bounds how long an abandoned attempt lingers.
type AttemptStore struct {
	ttl time.Duration
}

func NewAttemptStore(ttl time.Duration) *AttemptStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AttemptStore{ttl: ttl}
}

// Save writes the attempt, replacing any previous version.
func (s *AttemptStore) Save(ctx context.Context, attempt *entities.PaymentAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	return setAttemptValue(ctx, attemptKeyPrefix+attempt.ID.String(), data, s.ttl)
}

// Get returns ErrAttemptNotFound for unknown or expired attempts.
func (s *AttemptStore) Get(ctx context.Context, id uuid.UUID) (*entities.PaymentAttempt, error) {
	raw, err := getAttemptValue(ctx, attemptKeyPrefix+id.String())
	if err != nil {
		if errors.Is(err, Nil) {
			return nil, domainerrors.ErrAttemptNotFound
		}
		return nil, err
	}

	var attempt entities.PaymentAttempt
	if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// AcquireSettlement takes the one-shot latch for attemptID. Only the first
// caller gets true; later signals for the same attempt get false.
func (s *AttemptStore) AcquireSettlement(ctx context.Context, attemptID uuid.UUID) (bool, error) {
	return setLatchNX(ctx, latchKeyPrefix+attemptID.String(), time.Now().UTC().Format(time.RFC3339Nano), s.ttl)
}

// ReleaseSettlement drops the latch so a settlement that failed before any
// write can be signalled again.
func (s *AttemptStore) ReleaseSettlement(ctx context.Context, attemptID uuid.UUID) error {
	return delLatch(ctx, latchKeyPrefix+attemptID.String())
}
