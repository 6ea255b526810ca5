package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"talent-intake/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newRetryClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestRetry_RetriesTransientErrors(t *testing.T) {
	c := newRetryClient(3)
	attempts := 0

	err := c.retry(context.Background(), "start talent-intake-followup", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return status.Error(codes.Unavailable, "gateway unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	c := newRetryClient(3)
	attempts := 0

	err := c.retry(context.Background(), "start talent-intake-followup", func(ctx context.Context) error {
		attempts++
		return status.Error(codes.NotFound, "no process with id talent-intake-followup")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeResourceNotFound, stdErr.Code)
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	c := newRetryClient(2)
	attempts := 0

	err := c.retry(context.Background(), "start talent-intake-followup", func(ctx context.Context) error {
		attempts++
		return status.Error(codes.DeadlineExceeded, "request timed out")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
}

func TestRetry_StopsWhenContextEnds(t *testing.T) {
	c := &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := c.retry(ctx, "start talent-intake-followup", func(ctx context.Context) error {
		attempts++
		cancel()
		return status.Error(codes.Unavailable, "gateway unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), errors.ErrCodeExternalService},
		{"deadline status", status.Error(codes.DeadlineExceeded, "slow"), errors.ErrCodeTimeout},
		{"context deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), errors.ErrCodeTimeout},
		{"process not deployed", status.Error(codes.NotFound, "no process"), errors.ErrCodeResourceNotFound},
		{"unauthenticated", status.Error(codes.Unauthenticated, "token"), errors.ErrCodeAuthentication},
		{"plain error", fmt.Errorf("something odd"), errors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr, ok := errors.AsStandardError(classify("start", 1, tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.want, stdErr.Code)
		})
	}
}
