package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

func newLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "completion_log.csv")
	l, err := Load(path, &logging.MockLogger{})
	require.NoError(t, err)
	return l, path
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	l, _ := newLedger(t)
	assert.Equal(t, 0, l.Len())
}

func TestLoad_CorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completion_log.csv")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	_, err := Load(path, &logging.MockLogger{})
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr), "an unreadable existing ledger must not become an empty one")
}

func TestAppendAndReload(t *testing.T) {
	l, path := newLedger(t)
	work := models.GenerationWork(models.DocFee)

	require.NoError(t, l.Append("001", work, OutcomeSuccess, ""))
	require.NoError(t, l.Append("002", work, OutcomeFailure, ""))

	reloaded, err := Load(path, &logging.MockLogger{})
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Succeeded(work)["001"])
	assert.False(t, reloaded.Succeeded(work)["002"])
}

func TestPending_ExcludesAnyPriorSuccess(t *testing.T) {
	l, _ := newLedger(t)
	work := models.GenerationWork(models.DocFee)

	// A failure followed by a success: the recipient is done.
	require.NoError(t, l.Append("001", work, OutcomeFailure, ""))
	require.NoError(t, l.Append("001", work, OutcomeSuccess, ""))
	// A success followed by a failure still counts as done.
	require.NoError(t, l.Append("003", work, OutcomeSuccess, ""))
	require.NoError(t, l.Append("003", work, OutcomeFailure, ""))

	pending := l.Pending(work, []string{"001", "002", "003"})
	assert.Equal(t, []string{"002"}, pending)
}

func TestPending_KindsAreIndependent(t *testing.T) {
	l, _ := newLedger(t)

	require.NoError(t, l.Append("001", models.GenerationWork(models.DocFee), OutcomeSuccess, ""))

	pending := l.Pending(models.GenerationWork(models.DocRefund), []string{"001"})
	assert.Equal(t, []string{"001"}, pending)
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	l, path := newLedger(t)
	work := models.GenerationWork(models.DocAcquiring)

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Append(fmt.Sprintf("%03d", i), work, OutcomeSuccess, ""))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, writers, l.Len())

	// The flushed file always parses back to the full record set.
	reloaded, err := Load(path, &logging.MockLogger{})
	require.NoError(t, err)
	assert.Equal(t, writers, reloaded.Len())
	assert.Len(t, reloaded.Succeeded(work), writers)
}

func TestCounts(t *testing.T) {
	l, _ := newLedger(t)
	work := models.GenerationWork(models.DocFee)

	require.NoError(t, l.Append("001", work, OutcomeSuccess, ""))
	require.NoError(t, l.Append("002", work, OutcomeFailure, ""))
	require.NoError(t, l.Append("003", models.WorkDelivery, OutcomeSuccess, "a@example.com"))

	counts := l.Counts()
	assert.Equal(t, 1, counts[work][OutcomeSuccess])
	assert.Equal(t, 1, counts[work][OutcomeFailure])
	assert.Equal(t, 1, counts[models.WorkDelivery][OutcomeSuccess])
}
