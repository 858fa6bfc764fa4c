package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) Cleanup(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 3, nil
}

func TestRunIdempotencyCleanup(t *testing.T) {
	for _, cleaner := range []*countingCleaner{{}, {err: errors.New("db down")}} {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- RunIdempotencyCleanup(ctx, cleaner, 5*time.Millisecond, zerolog.Nop()) }()

		require.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()
		assert.NoError(t, <-done)
	}
}
