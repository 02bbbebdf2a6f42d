package utils

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/lib/pq"
)

// RetryPolicy controls the bounded retry loop in WithRetry.
type RetryPolicy struct {
	Attempts  int           // total attempts including the first
	BaseDelay time.Duration // fixed part of the inter-attempt delay
	MaxJitter time.Duration // random extra delay in [0, MaxJitter)
}

// DefaultLockRetry is the policy for database lock conflicts.
var DefaultLockRetry = RetryPolicy{
	Attempts:  3,
	BaseDelay: 150 * time.Millisecond,
	MaxJitter: 100 * time.Millisecond,
}

// WithRetry runs op, retrying only when classify reports the error as
// transient. Non-transient errors and the final failed attempt propagate to
// the caller unchanged.
func WithRetry(ctx context.Context, op func() error, classify func(error) bool, policy RetryPolicy) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err = op()
		if err == nil || !classify(err) || attempt == policy.Attempts {
			return err
		}
		delay := policy.BaseDelay
		if policy.MaxJitter > 0 {
			delay += time.Duration(rand.Int63n(int64(policy.MaxJitter)))
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Postgres error codes for lock conflicts that resolve on retry.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// IsLockConflict reports whether err is a transient lock/deadlock-class
// database error.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") || strings.Contains(msg, "could not serialize access")
}
