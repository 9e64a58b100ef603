package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testRetrier(maxRetries int) *Retrier {
	return NewRetrier(RetrierOptions{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	})
}

func TestNewRetrier_Defaults(t *testing.T) {
	r := NewRetrier(RetrierOptions{MaxRetries: -1})
	assert.Equal(t, 0, r.maxRetries)
	assert.Equal(t, 500*time.Millisecond, r.initialInterval)
	assert.Equal(t, 10*time.Second, r.maxInterval)
	assert.Equal(t, 2.0, r.multiplier)
}

func TestRetrier_Retry(t *testing.T) {
	transient := &domain.RetryableError{Err: errors.New("gateway")}

	t.Run("success first try", func(t *testing.T) {
		calls := 0
		err := testRetrier(3).Retry(context.Background(), func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero retries means one attempt", func(t *testing.T) {
		calls := 0
		err := testRetrier(0).Retry(context.Background(), func() error {
			calls++
			return transient
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := testRetrier(2).Retry(context.Background(), func() error {
			calls++
			return transient
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		err := testRetrier(5).Retry(context.Background(), func() error {
			calls++
			return domain.ErrNotFound
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on rate limit even when wrapped as retryable", func(t *testing.T) {
		calls := 0
		err := testRetrier(5).Retry(context.Background(), func() error {
			calls++
			return &domain.RetryableError{Err: domain.ErrRateLimited}
		})
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.Equal(t, 1, calls)
	})
}

func TestShouldRetryStatus(t *testing.T) {
	for _, code := range []int{502, 503, 504, 520, 525, 530} {
		assert.True(t, ShouldRetryStatus(code), code)
	}
	for _, code := range []int{200, 400, 403, 404, 429, 500, 519, 531} {
		assert.False(t, ShouldRetryStatus(code), code)
	}
}
