// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry runs store operations again after transient failures.
// The client never retries on its own; callers opt in here.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/docket/storage"
)

// ErrInvalidMaxAttempts is returned when MaxAttempts is <= 0.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts counts the first call. 1 disables retries.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. It doubles after
	// every further failure.
	BaseDelay time.Duration

	// Retryable decides whether err is worth another attempt.
	// Default: Transient
	Retryable func(error) bool

	// Logger receives one debug record per failed attempt.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Transient reports whether err is a store outage. Conflicts, validation
// and parse failures are never transient, and neither is a provisioning
// failure, which is sticky for the client that reported it.
func Transient(err error) bool {
	if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrProvisioning) {
		return false
	}
	return errors.Is(err, storage.ErrStoreUnavailable)
}

// Do calls operation until it succeeds, returns a non-retryable error,
// attempts run out, or ctx is done. It returns the last operation error,
// or the context error if ctx ended first.
func Do(ctx context.Context, p Policy, operation func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = Transient
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}

		logger.Debug("operation failed, will retry", "attempt", attempt, "max_attempts", p.MaxAttempts, "err", lastErr)
		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
