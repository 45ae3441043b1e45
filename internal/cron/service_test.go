package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/metrics"
	"github.com/netbill/isp-billing/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name  string
	err   error
	panic bool
	runs  int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	if t.panic {
		panic("job exploded")
	}
	return t.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return service
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	panicking := &testJob{name: "panic", panic: true}
	lock := &fakeLock{}
	service := newTestService(t, lock, ok, failing, panicking)

	failed, err := service.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, failed)
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, panicking.runs)
	assert.False(t, lock.acquired, "lock must be released after the cycle")
}

func TestRunOnceSelectsNamedJobs(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b"}
	service := newTestService(t, &fakeLock{}, a, b)

	_, err := service.RunOnce(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 0, a.runs)
	assert.Equal(t, 1, b.runs)

	_, err = service.RunOnce(context.Background(), "nope")
	assert.Error(t, err)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	key := client.LockKey("cron")
	holder, err := redis.NewLock(client, key, time.Minute)
	require.NoError(t, err)
	acquired, err := holder.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)

	lock, err := redis.NewLock(client, key, time.Minute)
	require.NoError(t, err)
	job := &testJob{name: "blocked"}
	service := newTestService(t, lock, job)

	_, err = service.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, job.runs, "job must be skipped while the lock is held")

	require.NoError(t, holder.Release(context.Background()))
	_, err = service.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, job.runs)
	assert.False(t, mr.Exists(key), "cron lock should be released after the cycle")
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "tick"}
	service := newTestService(t, &fakeLock{}, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := service.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, job.runs, "a canceled context should not start jobs")
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: quietLogger()})
	assert.Error(t, err)
}
