package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ConnState is the supervisor's view of the database connection.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Dialer opens a new database handle.
type Dialer func(ctx context.Context) (*gorm.DB, error)

// SupervisorOptions tunes a Supervisor.
type SupervisorOptions struct {
	// RetryDelay is the fixed wait between failed connection attempts.
	RetryDelay time.Duration
	// HealthInterval is how often Run pings the live connection.
	HealthInterval time.Duration
	// OnConnect runs after every successful dial, before the handle is
	// handed out. An error from it counts as a failed attempt.
	OnConnect func(ctx context.Context, db *gorm.DB) error
	// OnStateChange observes every state transition.
	OnStateChange func(ConnState)
}

// Supervisor owns the single database handle shared by all requests and
// keeps it connected. Only one connect sequence runs at a time.
type Supervisor struct {
	dial   Dialer
	opts   SupervisorOptions
	logger *zap.Logger

	mu    sync.RWMutex
	db    *gorm.DB
	state ConnState

	group singleflight.Group
	wake  chan struct{}

	attempts atomic.Int64
	connects atomic.Int64
}

// NewSupervisor returns a disconnected supervisor.
func NewSupervisor(dial Dialer, opts SupervisorOptions, logger *zap.Logger) *Supervisor {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 15 * time.Second
	}
	return &Supervisor{
		dial:   dial,
		opts:   opts,
		logger: logger.Named("supervisor"),
		wake:   make(chan struct{}, 1),
	}
}

// State returns the current connection state.
func (s *Supervisor) State() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Attempts is the number of dials performed so far.
func (s *Supervisor) Attempts() int64 {
	return s.attempts.Load()
}

// Connects is the number of successful connections so far.
func (s *Supervisor) Connects() int64 {
	return s.connects.Load()
}

// DB returns the live handle, or ErrNotConnected.
func (s *Supervisor) DB() (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Connected || s.db == nil {
		return nil, ErrNotConnected
	}
	return s.db, nil
}

// ReportError lets callers hand query errors back. Transient errors mark
// the connection lost and wake Run to reconnect.
func (s *Supervisor) ReportError(err error) {
	if !IsTransient(err) {
		return
	}
	if s.setStateIf(Connected, Disconnected) {
		s.logger.Warn("database connection lost", zap.Error(err))
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Connect dials until it succeeds, ctx is done, or a non-transient error
// occurs. It is a no-op while connected, and concurrent callers share one
// connect sequence.
func (s *Supervisor) Connect(ctx context.Context) error {
	if s.State() == Connected {
		return nil
	}
	_, err, _ := s.group.Do("connect", func() (interface{}, error) {
		return nil, s.connectLoop(ctx)
	})
	return err
}

func (s *Supervisor) connectLoop(ctx context.Context) error {
	for {
		if s.State() == Connected {
			return nil
		}
		s.setState(Connecting)
		attempt := s.attempts.Add(1)

		db, err := s.dial(ctx)
		if err == nil && s.opts.OnConnect != nil {
			if err = s.opts.OnConnect(ctx, db); err != nil {
				closeHandle(db)
			}
		}
		if err == nil {
			s.install(db)
			s.connects.Add(1)
			s.logger.Info("database connected", zap.Int64("attempt", attempt))
			return nil
		}

		s.setState(Disconnected)
		if !IsTransient(err) {
			s.logger.Error("database connection failed", zap.Int64("attempt", attempt), zap.Error(err))
			return fmt.Errorf("connect database: %w", err)
		}
		s.logger.Warn("database connection failed, retrying",
			zap.Int64("attempt", attempt),
			zap.Duration("retry_in", s.opts.RetryDelay),
			zap.Error(err),
		)

		timer := time.NewTimer(s.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Run connects, then pings on every HealthInterval and reconnects after
// transient failures. It returns nil when ctx is cancelled and an error
// when a non-transient failure makes the store unusable.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.HealthInterval)
	defer ticker.Stop()

	for {
		if s.State() != Connected {
			if err := s.Connect(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-ticker.C:
			if err := s.Ping(ctx); err != nil {
				if !IsTransient(err) {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("database health check: %w", err)
				}
				s.ReportError(err)
			}
		}
	}
}

// Ping checks the live connection.
func (s *Supervisor) Ping(ctx context.Context) error {
	db, err := s.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the handle and leaves the supervisor disconnected.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.state = Disconnected
	s.mu.Unlock()
	s.notify(Disconnected)

	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Supervisor) install(db *gorm.DB) {
	s.mu.Lock()
	old := s.db
	s.db = db
	s.state = Connected
	s.mu.Unlock()
	s.notify(Connected)

	if old != nil && old != db {
		closeHandle(old)
	}
}

func (s *Supervisor) setState(state ConnState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.notify(state)
	}
}

func (s *Supervisor) setStateIf(from, to ConnState) bool {
	s.mu.Lock()
	ok := s.state == from
	if ok {
		s.state = to
	}
	s.mu.Unlock()
	if ok {
		s.notify(to)
	}
	return ok
}

func (s *Supervisor) notify(state ConnState) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(state)
	}
}

func closeHandle(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
