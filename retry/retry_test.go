package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docket/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOutage = fmt.Errorf("%w: connection reset", storage.ErrStoreUnavailable)

func policy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: 5 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), policy(3), func(context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestDo_EventualSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), policy(5), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errOutage
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), policy(3), func(context.Context) error {
		attempts++
		return errOutage
	})
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	assert.Equal(t, 3, attempts, "should attempt exactly MaxAttempts times")
}

func TestDo_ConflictNotRetried(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), policy(5), func(context.Context) error {
		attempts++
		return fmt.Errorf("write: %w", storage.ErrConflict)
	})
	require.ErrorIs(t, err, storage.ErrConflict)
	assert.Equal(t, 1, attempts)
}

func TestDo_PlainErrorNotRetried(t *testing.T) {
	attempts := 0
	expected := errors.New("bad document")
	err := Do(context.Background(), policy(5), func(context.Context) error {
		attempts++
		return expected
	})
	assert.Equal(t, expected, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_CustomRetryable(t *testing.T) {
	attempts := 0
	p := policy(4)
	p.Retryable = func(error) bool { return true }
	err := Do(context.Background(), p, func(context.Context) error {
		attempts++
		return errors.New("anything")
	})
	require.Error(t, err)
	assert.Equal(t, 4, attempts)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, policy(10), func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errOutage
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestDo_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	last := time.Now()
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}, func(context.Context) error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		if attempts < 4 {
			return errOutage
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, delays, 3)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), policy(n), func(context.Context) error {
				attempts++
				return nil
			})
			require.ErrorIs(t, err, ErrInvalidMaxAttempts)
			assert.Equal(t, 0, attempts)
		})
	}
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(errOutage))
	assert.False(t, Transient(storage.ErrConflict))
	assert.False(t, Transient(fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, storage.ErrConflict)))
	assert.False(t, Transient(errors.New("other")))
	assert.False(t, Transient(nil))
	assert.False(t, Transient(fmt.Errorf("%w: create database: %w", storage.ErrProvisioning, errOutage)),
		"provisioning failures are sticky")
}

func TestDo_StopsOnProvisioningFailure(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(5), func(context.Context) error {
		calls++
		return fmt.Errorf("%w: open store: %w", storage.ErrProvisioning, errOutage)
	})
	require.ErrorIs(t, err, storage.ErrProvisioning)
	assert.Equal(t, 1, calls)
}
