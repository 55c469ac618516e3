package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) SyncAll(ctx context.Context) (int, error) {
	s.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	return 1, s.err
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	r := New(context.Background())
	_, err := r.Add("every now and then", func(context.Context) {})
	assert.Error(t, err)

	_, err = r.Add("0 */15 * * * *", func(context.Context) {})
	assert.NoError(t, err)
	_, err = r.Add("@every 15m", func(context.Context) {})
	assert.NoError(t, err)
}

func TestRunnerRunsJobs(t *testing.T) {
	r := New(context.Background())
	ran := make(chan struct{}, 1)
	_, err := r.Add("* * * * * *", func(context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	r.Start()
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestSyncJob(t *testing.T) {
	syncer := &countingSyncer{}
	SyncJob(syncer, time.Minute)(context.Background())
	assert.Equal(t, int32(1), syncer.calls.Load())

	syncer.err = errors.New("user 7: broker down")
	SyncJob(syncer, time.Minute)(context.Background())
	assert.Equal(t, int32(2), syncer.calls.Load())
}
