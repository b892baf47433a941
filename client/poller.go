package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/ReyCannavaro/urbangrow/utils"
	"go.uber.org/zap"
)

// DefaultPollInterval matches the dashboard refresh rate.
const DefaultPollInterval = 3 * time.Second

// ConnectionState is the dashboard's view of the API.
type ConnectionState int

const (
	Initializing ConnectionState = iota
	Connected
	Disconnected
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "initializing"
	}
}

// Snapshot is the last applied poll result.
type Snapshot struct {
	State     ConnectionState
	Reading   models.SensorReading
	Actuators models.ActuatorState
	Quality   utils.WaterQuality
	UpdatedAt time.Time
	Err       error
}

// API is the read side of Client used by the poller.
type API interface {
	LatestReading(ctx context.Context) (models.SensorReading, error)
	ActuatorStatus(ctx context.Context) (models.ActuatorState, error)
}

// PollerOptions configures NewPoller. Callbacks run one at a time, in the
// order results were applied, and must not call Refresh.
type PollerOptions struct {
	Interval time.Duration
	// OnUpdate receives every applied snapshot.
	OnUpdate func(Snapshot)
	// OnAlert fires once, when the very first fetch fails.
	OnAlert func(error)
	Logger  *zap.Logger
}

// Poller refreshes the latest reading and actuator state on a fixed
// interval. Every fetch takes a generation number when it starts; a result
// older than the last applied one is discarded.
type Poller struct {
	api    API
	opts   PollerOptions
	logger *zap.Logger

	issued atomic.Uint64

	mu      sync.Mutex
	applied uint64
	snap    Snapshot
	cancel  context.CancelFunc

	notify sync.Mutex
	wg     sync.WaitGroup
}

// NewPoller returns a stopped poller.
func NewPoller(api API, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		api:    api,
		opts:   opts,
		logger: logger.Named("poller"),
	}
}

// Start fetches immediately and then on every tick until ctx is cancelled
// or Stop is called. Calling Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		cancel()
		return
	}
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go p.loop(ctx)
}

// Stop cancels the timer and any in-flight fetch, and waits for them.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.spawn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.spawn(ctx)
		}
	}
}

// spawn runs one fetch without blocking the timer, so a slow response
// cannot delay the next tick.
func (p *Poller) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Refresh(ctx)
	}()
}

// Refresh performs one fetch of the reading and actuator state and applies
// the result if nothing newer has been applied meanwhile.
func (p *Poller) Refresh(ctx context.Context) error {
	gen := p.nextGeneration()

	reading, err := p.api.LatestReading(ctx)
	var state models.ActuatorState
	if err == nil {
		state, err = p.api.ActuatorStatus(ctx)
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	p.apply(gen, err, true, func(s *Snapshot) {
		s.Reading = reading
		s.Actuators = state
		s.Quality = utils.ClassifyWater(reading.Temperature, reading.PH)
	})
	return err
}

// Snapshot returns the last applied result.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Poller) nextGeneration() uint64 {
	return p.issued.Add(1)
}

// apply installs a result taken at generation gen. On failure the cached
// values are kept and only the state changes. A partial result (actuators
// only) updates values without changing the state.
func (p *Poller) apply(gen uint64, err error, full bool, update func(*Snapshot)) bool {
	p.mu.Lock()
	if gen <= p.applied {
		p.mu.Unlock()
		p.logger.Debug("discarding stale poll result", zap.Uint64("generation", gen))
		return false
	}
	p.applied = gen

	prev := p.snap.State
	if err != nil {
		p.snap.State = Disconnected
		p.snap.Err = err
	} else {
		update(&p.snap)
		if full {
			p.snap.State = Connected
			p.snap.Err = nil
			p.snap.UpdatedAt = time.Now()
		}
	}
	snap := p.snap
	alert := err != nil && prev == Initializing

	p.notify.Lock()
	p.mu.Unlock()
	defer p.notify.Unlock()

	if prev != snap.State {
		p.logger.Info("connection state changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", snap.State),
			zap.Error(err),
		)
	}
	if p.opts.OnUpdate != nil {
		p.opts.OnUpdate(snap)
	}
	if alert && p.opts.OnAlert != nil {
		p.opts.OnAlert(err)
	}
	return true
}
