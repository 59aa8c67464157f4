package scheduler

import (
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// DefaultSettle is the length of the animation window after a committed move
const DefaultSettle = 150 * time.Millisecond

// State of the admission state machine
type State int

const (
	Idle State = iota
	Animating
)

func (s State) String() string {
	if s == Animating {
		return "animating"
	}
	return "idle"
}

// Decision reports what Request did with a direction
type Decision int

const (
	// Rejected: invalid direction or the game is over
	Rejected Decision = iota
	// Unchanged: admitted but the slide moved nothing
	Unchanged
	// Admitted: committed, the settle window started
	Admitted
	// Buffered: stored as the pending direction until the window ends
	Buffered
)

func (d Decision) String() string {
	switch d {
	case Unchanged:
		return "unchanged"
	case Admitted:
		return "admitted"
	case Buffered:
		return "buffered"
	default:
		return "rejected"
	}
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// AdmitFunc runs the full admission path for one direction
type AdmitFunc func(engine.Direction) engine.MoveResult

// Scheduler serializes move requests against the settle window. While a
// committed move is animating, at most one further direction is kept and the
// latest request wins. All methods must run on the executor the scheduler was
// built with.
type Scheduler struct {
	admit  AdmitFunc
	exec   Executor
	clock  Clock
	settle time.Duration
	logger *zap.Logger

	onCommit func(engine.MoveResult)
	onIdle   func()

	state   State
	pending engine.Direction
	epoch   uint64
	timer   Timer
}

// Option configures a Scheduler
type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithSettle sets the animation window; negative values are treated as zero
func WithSettle(d time.Duration) Option {
	return func(s *Scheduler) {
		if d < 0 {
			d = 0
		}
		s.settle = d
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// OnCommit registers a hook called once per committed move, on the executor
func OnCommit(f func(engine.MoveResult)) Option {
	return func(s *Scheduler) { s.onCommit = f }
}

// OnIdle registers a hook called every time the scheduler returns to Idle
func OnIdle(f func()) Option {
	return func(s *Scheduler) { s.onIdle = f }
}

// New creates an idle scheduler
func New(admit AdmitFunc, exec Executor, opts ...Option) *Scheduler {
	s := &Scheduler{
		admit:  admit,
		exec:   exec,
		clock:  RealClock{},
		settle: DefaultSettle,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request handles one move request
func (s *Scheduler) Request(d engine.Direction) Decision {
	if !d.Valid() {
		return Rejected
	}

	if s.state == Animating {
		if s.pending.Valid() && s.pending != d {
			s.logger.Debug("pending move replaced",
				zap.Stringer("previous", s.pending),
				zap.Stringer("direction", d))
		}
		s.pending = d
		return Buffered
	}

	return s.run(d)
}

func (s *Scheduler) run(d engine.Direction) Decision {
	res := s.admit(d)

	var decision Decision
	switch res.Outcome {
	case engine.OutcomeCommitted:
		decision = Admitted
	case engine.OutcomeUnchanged:
		decision = Unchanged
	default:
		decision = Rejected
	}

	s.logger.Debug("move request",
		zap.Stringer("direction", d),
		zap.Stringer("decision", decision),
		zap.Int("score_delta", res.ScoreDelta))

	if decision != Admitted {
		return decision
	}

	s.state = Animating
	s.startTimer()
	if s.onCommit != nil {
		s.onCommit(res)
	}
	return decision
}

func (s *Scheduler) startTimer() {
	s.epoch++
	epoch := s.epoch
	s.timer = s.clock.AfterFunc(s.settle, func() {
		if err := s.exec.Post(func() { s.settled(epoch) }); err != nil {
			s.logger.Debug("settle dropped", zap.Error(err))
		}
	})
}

// settled runs on the executor once the window of the given epoch ends
func (s *Scheduler) settled(epoch uint64) {
	if epoch != s.epoch || s.state != Animating {
		return
	}
	s.timer = nil
	s.state = Idle

	if d := s.pending; d.Valid() {
		s.pending = engine.NoDirection
		s.run(d)
	}

	if s.state == Idle && s.onIdle != nil {
		s.onIdle()
	}
}

// Reset stops the window, drops the pending direction and returns to Idle.
// A settle callback already in flight is ignored.
func (s *Scheduler) Reset() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
	s.pending = engine.NoDirection

	wasIdle := s.state == Idle
	s.state = Idle
	if !wasIdle && s.onIdle != nil {
		s.onIdle()
	}
}

func (s *Scheduler) State() State { return s.state }

func (s *Scheduler) Idle() bool { return s.state == Idle }

// Pending returns the buffered direction, NoDirection when none
func (s *Scheduler) Pending() engine.Direction { return s.pending }

func (s *Scheduler) Settle() time.Duration { return s.settle }
