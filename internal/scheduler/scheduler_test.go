package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/retrain"
)

type fakeRebuilder struct {
	mu       sync.Mutex
	triggers []string
	err      error
	claimed  bool
	release  chan struct{}
	done     chan struct{}
}

func (f *fakeRebuilder) Rebuild(ctx context.Context, trigger string) (*retrain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return nil, f.err
	}
	return &retrain.Result{Run: &models.PipelineRun{ID: "run-1", TrainingRows: 10}}, nil
}

func (f *fakeRebuilder) Begin(trigger string) (func(ctx context.Context) (*retrain.Result, error), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed {
		return nil, retrain.ErrAlreadyRunning
	}
	f.claimed = true
	return func(ctx context.Context) (*retrain.Result, error) {
		<-f.release
		f.mu.Lock()
		f.triggers = append(f.triggers, trigger)
		f.claimed = false
		f.mu.Unlock()
		close(f.done)
		return &retrain.Result{Run: &models.PipelineRun{ID: "run-2"}}, nil
	}, nil
}

func TestParseDailyRunTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"02:00", "0 2 * * *"},
		{"23:45", "45 23 * * *"},
		{"7:05", "5 7 * * *"},
		{"25:00", "0 3 * * *"},
		{"noon", "0 3 * * *"},
		{"", "0 3 * * *"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDailyRunTime(tt.in), tt.in)
	}
}

func TestRunNow(t *testing.T) {
	r := &fakeRebuilder{}
	s := NewScheduler(r, nil, config.SchedulerConfig{})

	require.NoError(t, s.RunNow(models.TriggerAdmin))
	assert.Equal(t, []string{models.TriggerAdmin}, r.triggers)
}

func TestRunNowErrors(t *testing.T) {
	r := &fakeRebuilder{err: retrain.ErrAlreadyRunning}
	s := NewScheduler(r, nil, config.SchedulerConfig{})
	assert.NoError(t, s.RunNow(models.TriggerAdmin))

	r.err = errors.New("boom")
	assert.Error(t, s.RunNow(models.TriggerAdmin))
}

func TestRunAsyncRejectsConcurrentTrigger(t *testing.T) {
	r := &fakeRebuilder{release: make(chan struct{}), done: make(chan struct{})}
	s := NewScheduler(r, nil, config.SchedulerConfig{})

	require.NoError(t, s.RunAsync(models.TriggerAdmin))
	// the first rebuild is still running
	assert.ErrorIs(t, s.RunAsync(models.TriggerAdmin), retrain.ErrAlreadyRunning)

	close(r.release)
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild did not finish")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, []string{models.TriggerAdmin}, r.triggers)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakeRebuilder{}, nil, config.SchedulerConfig{DailyRunEnabled: true, DailyRunTime: "04:30"})
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
	s.Stop()
}
