package config

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

var errRefused = &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

// flakyDialer fails the first n dials with a refused connection and tracks
// how many dials overlap.
type flakyDialer struct {
	t        *testing.T
	failures int32
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (d *flakyDialer) dial(ctx context.Context) (*gorm.DB, error) {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		seen := d.maxSeen.Load()
		if n <= seen || d.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if d.calls.Add(1) <= d.failures {
		return nil, errRefused
	}
	return openMemory(d.t), nil
}

func TestSupervisorReconnectsAfterTransientFailure(t *testing.T) {
	dialer := &flakyDialer{t: t, failures: 2}
	s := NewSupervisor(dialer.dial, SupervisorOptions{RetryDelay: 10 * time.Millisecond}, zap.NewNop())
	defer s.Close()

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, Connected, s.State())
	assert.EqualValues(t, 1, s.Connects())
	assert.EqualValues(t, 3, s.Attempts())
	assert.EqualValues(t, 1, dialer.maxSeen.Load(), "connect attempts overlapped")

	db, err := s.DB()
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestSupervisorConnectIsNoOpWhenConnected(t *testing.T) {
	dialer := &flakyDialer{t: t}
	s := NewSupervisor(dialer.dial, SupervisorOptions{}, zap.NewNop())
	defer s.Close()

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Connect(context.Background()))

	assert.EqualValues(t, 1, s.Attempts())
}

func TestSupervisorFatalError(t *testing.T) {
	fatal := errors.New("syntax error in DSN")
	s := NewSupervisor(func(context.Context) (*gorm.DB, error) {
		return nil, fatal
	}, SupervisorOptions{RetryDelay: time.Millisecond}, zap.NewNop())

	err := s.Connect(context.Background())

	assert.ErrorIs(t, err, fatal)
	assert.EqualValues(t, 1, s.Attempts())
	assert.Equal(t, Disconnected, s.State())
	_, err = s.DB()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSupervisorConnectStopsOnCancel(t *testing.T) {
	s := NewSupervisor(func(context.Context) (*gorm.DB, error) {
		return nil, errRefused
	}, SupervisorOptions{RetryDelay: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Connect(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSupervisorOnConnectRunsEveryConnection(t *testing.T) {
	var schemaRuns atomic.Int32
	dialer := &flakyDialer{t: t}
	var states []ConnState
	var mu sync.Mutex
	s := NewSupervisor(dialer.dial, SupervisorOptions{
		RetryDelay: time.Millisecond,
		OnConnect: func(context.Context, *gorm.DB) error {
			schemaRuns.Add(1)
			return nil
		},
		OnStateChange: func(state ConnState) {
			mu.Lock()
			states = append(states, state)
			mu.Unlock()
		},
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Connects() == 1 }, time.Second, 5*time.Millisecond)

	s.ReportError(errors.New("constraint violation"))
	assert.Equal(t, Connected, s.State(), "non-transient errors must not drop the connection")

	s.ReportError(errRefused)
	require.Eventually(t, func() bool { return s.Connects() == 2 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, schemaRuns.Load())

	cancel()
	assert.NoError(t, <-done)
	require.NoError(t, s.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ConnState{Connecting, Connected, Disconnected, Connecting, Connected, Disconnected}, states)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errRefused))
	assert.True(t, IsTransient(ErrNotConnected))
	assert.True(t, IsTransient(&TransientConnectionError{Err: errors.New("x")}))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("duplicate key")))
	assert.False(t, IsTransient(&net.DNSError{Err: "no such host", Name: "db"}))
}
