package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWithRetryTransientThenSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pq.Error{Code: "40P01", Message: "deadlock detected"}
		}
		return nil
	}, IsLockConflict, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryNonTransientFailsFast(t *testing.T) {
	permanent := errors.New("unique constraint violation")
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return permanent
	}, IsLockConflict, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryExhaustedReturnsLastError(t *testing.T) {
	transient := &pq.Error{Code: "40001"}
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return transient
	}, IsLockConflict, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})

	assert.Equal(t, transient, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return &pq.Error{Code: "40001"}
	}, IsLockConflict, RetryPolicy{Attempts: 5, BaseDelay: 50 * time.Millisecond})

	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryZeroAttemptsClamped(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	}, IsLockConflict, RetryPolicy{})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsLockConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"lock not available", &pq.Error{Code: "55P03"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"wrapped pq error", fmt.Errorf("replace offers: %w", &pq.Error{Code: "40P01"}), true},
		{"message fallback deadlock", errors.New("pq: deadlock detected"), true},
		{"message fallback serialize", errors.New("could not serialize access due to concurrent update"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsLockConflict(tc.err))
		})
	}
}
