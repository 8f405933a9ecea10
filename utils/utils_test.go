package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Session code tests

func TestGenerateSessionCode_Length(t *testing.T) {
	code, err := GenerateSessionCode(6)

	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestGenerateSessionCode_RestrictedAlphabet(t *testing.T) {
	// No 0/O, 1/I/L; they're indistinguishable when read aloud.
	for i := 0; i < 50; i++ {
		code, err := GenerateSessionCode(6)
		require.NoError(t, err)

		for _, ch := range code {
			assert.Contains(t, CodeAlphabet, string(ch))
		}
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "L")
	}
}

func TestGenerateSessionCode_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateSessionCode(6)
		require.NoError(t, err)
		seen[code] = true
	}

	// 31^6 combinations; 20 identical draws would mean a broken RNG.
	assert.Greater(t, len(seen), 1)
}

// Circuit breaker tests

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")

	err := cb.Execute(func() error { return nil })

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxFailures = 3

	boom := errors.New("publish failed")
	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		assert.Equal(t, boom, err)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_SuccessResetsFailureRun(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxFailures = 3

	boom := errors.New("publish failed")
	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return boom })

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxFailures = 1
	cb.openTimeout = 10 * time.Millisecond

	cb.Execute(func() error { return errors.New("publish failed") })
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// Successful probe closes the circuit again.
	err := cb.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxFailures = 1
	cb.openTimeout = 10 * time.Millisecond

	cb.Execute(func() error { return errors.New("publish failed") })
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())
}

// Session lock tests

func TestSessionLock_AcquireAndRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lock := NewSessionLock(db, 10*time.Second)

	mock.Regexp().ExpectSetNX("lock:session:jam-1", `[A-Z2-9]{16}`, 10*time.Second).SetVal(true)

	token, err := lock.Acquire(context.Background(), "jam-1")
	require.NoError(t, err)
	assert.Len(t, token, 16)
	assert.True(t, strings.ContainsAny(token, CodeAlphabet))

	mock.ExpectEval(releaseScript, []string{"lock:session:jam-1"}, token).SetVal(int64(1))
	err = lock.Release(context.Background(), "jam-1", token)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionLock_AcquireGivesUpWhenContextExpires(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lock := NewSessionLock(db, 10*time.Second)

	// Lock stays held for the whole window.
	for i := 0; i < 10; i++ {
		mock.Regexp().ExpectSetNX("lock:session:jam-1", `[A-Z2-9]{16}`, 10*time.Second).SetVal(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := lock.Acquire(ctx, "jam-1")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}
