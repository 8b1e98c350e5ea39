package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-statements/internal/logging"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%03d", i)
	}
	return out
}

func TestRun_AllUnitsComplete(t *testing.T) {
	pool := NewPool(4, &logging.MockLogger{})

	var mu sync.Mutex
	seen := make(map[string]bool)

	results := pool.Run(context.Background(), ids(25), func(_ context.Context, storeID string) error {
		mu.Lock()
		seen[storeID] = true
		mu.Unlock()
		return nil
	})

	assert.Len(t, results, 25)
	assert.Len(t, seen, 25)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	pool := NewPool(3, &logging.MockLogger{})
	boom := errors.New("renderer unavailable")

	results := pool.Run(context.Background(), ids(10), func(_ context.Context, storeID string) error {
		if storeID == "004" {
			return boom
		}
		return nil
	})

	require.Len(t, results, 10)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			assert.Equal(t, "004", r.StoreID)
			assert.ErrorIs(t, r.Err, boom)
		}
	}
	assert.Equal(t, 1, failed, "exactly one unit fails, the rest succeed")
}

func TestRun_PanicIsCaptured(t *testing.T) {
	pool := NewPool(2, &logging.MockLogger{})

	results := pool.Run(context.Background(), []string{"001", "002"}, func(_ context.Context, storeID string) error {
		if storeID == "001" {
			panic("template blew up")
		}
		return nil
	})

	require.Len(t, results, 2)
	for _, r := range results {
		if r.StoreID == "001" {
			assert.Error(t, r.Err)
		} else {
			assert.NoError(t, r.Err)
		}
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(workers, &logging.MockLogger{})

	var current, peak int64
	results := pool.Run(context.Background(), ids(30), func(_ context.Context, _ string) error {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return nil
	})

	assert.Len(t, results, 30)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(workers))
}

func TestRun_CancellationStopsDispatch(t *testing.T) {
	pool := NewPool(1, &logging.MockLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	var dispatched int64
	results := pool.Run(ctx, ids(100), func(_ context.Context, _ string) error {
		if atomic.AddInt64(&dispatched, 1) == 3 {
			cancel()
		}
		time.Sleep(time.Millisecond)
		return nil
	})

	// Units dispatched before cancellation complete and report; the rest
	// are abandoned without a result.
	assert.GreaterOrEqual(t, len(results), 3)
	assert.Less(t, len(results), 100)
}
