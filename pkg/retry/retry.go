// Package retry runs an operation again with exponential backoff until it
// succeeds, fails permanently or runs out of attempts.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Error marks an error as retryable or permanent.
type Error struct {
	Err   error
	Retry bool
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err, Retry: true}
}

// Permanent marks err as final even if a ShouldRetry hook would accept it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retry
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var e *Error
	return errors.As(err, &e) && !e.Retry
}

// strip removes the outer marker so callers see the operation's own error.
func strip(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Err
	}
	return err
}

// Policy describes how often and how patiently to retry.
type Policy struct {
	// Attempts counts the first call too. Values below 1 mean one call.
	Attempts int

	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	// Jitter spreads each delay by up to ±Jitter of its value.
	Jitter float64

	// ShouldRetry overrides the default of retrying only Retryable errors.
	ShouldRetry func(error) bool

	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// NotificationPolicy is used for outbound messages to participants.
// A non-positive base delay means 200ms; delays never exceed 5s.
func NotificationPolicy(attempts int, base time.Duration, onRetry func(attempt int, err error, delay time.Duration)) Policy {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return Policy{
		Attempts:   attempts,
		BaseDelay:  base,
		MaxDelay:   5 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
		OnRetry:    onRetry,
	}
}

// Do calls op until it returns nil or a non-retryable error, the attempts
// are used up, or ctx ends. The returned error is op's own error without
// the Retryable/Permanent marker.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return strip(last)
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if IsPermanent(err) || !p.retries(err) || attempt >= attempts {
			return strip(err)
		}

		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return strip(last)
		case <-timer.C:
		}
	}
}

func (p Policy) retries(err error) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return IsRetryable(err)
}

// Backoff returns the sleep after the given failed attempt:
// BaseDelay * Multiplier^(attempt-1), capped at MaxDelay, then jittered.
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
