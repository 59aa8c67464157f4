package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/scheduler"
)

// ErrSessionClosed is returned by operations on a closed session
var ErrSessionClosed = errors.New("session closed")

// Session is one single-player game. All mutations run on the session's loop
// goroutine; readers load the latest Snapshot without touching the loop.
type Session struct {
	ID        string
	Config    *engine.GameConfig
	CreatedAt time.Time

	lastAccessed atomic.Int64
	logger       *zap.Logger
	clock        scheduler.Clock

	loop   *scheduler.Loop
	engine *engine.GameEngine
	sched  *scheduler.Scheduler
	hub    *Hub

	// loop-owned
	seq     uint64
	waiters []chan struct{}

	snap      atomic.Pointer[Snapshot]
	closeOnce sync.Once
}

type options struct {
	settle     time.Duration
	clock      scheduler.Clock
	logger     *zap.Logger
	engineOpts []engine.Option
}

// Option configures a Session
type Option func(*options)

// WithSettle sets the animation window after each committed move
func WithSettle(d time.Duration) Option {
	return func(o *options) { o.settle = d }
}

// WithClock replaces the clock driving the settle timer and timestamps
func WithClock(c scheduler.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEngineOptions passes options to the game engine, e.g. a seed
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// New starts a session with a fresh board
func New(id string, config *engine.GameConfig, opts ...Option) (*Session, error) {
	o := options{
		settle: scheduler.DefaultSettle,
		clock:  scheduler.RealClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	engineOpts := append([]engine.Option{engine.WithNow(o.clock.Now)}, o.engineOpts...)
	eng, err := engine.NewEngine(config, engineOpts...)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With(zap.String("session_id", id))
	s := &Session{
		ID:        id,
		Config:    config,
		CreatedAt: o.clock.Now(),
		logger:    logger,
		clock:     o.clock,
		loop:      scheduler.NewLoop(),
		engine:    eng,
		hub:       NewHub(logger),
	}
	s.lastAccessed.Store(s.CreatedAt.UnixNano())
	s.sched = scheduler.New(eng.Move, s.loop,
		scheduler.WithClock(o.clock),
		scheduler.WithSettle(o.settle),
		scheduler.WithLogger(logger),
		scheduler.OnCommit(s.committed),
		scheduler.OnIdle(s.idle),
	)

	// Nothing else can reach the session yet
	s.publish(EventInit, nil)
	return s, nil
}

// RequestMove submits one direction to the scheduler and reports what it did
func (s *Session) RequestMove(ctx context.Context, d engine.Direction) (scheduler.Decision, error) {
	var decision scheduler.Decision
	if err := s.do(ctx, func() { decision = s.sched.Request(d) }); err != nil {
		return scheduler.Rejected, err
	}
	return decision, nil
}

// Reset discards the current game, drops any pending move and starts over
func (s *Session) Reset(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		s.sched.Reset()
		s.engine.Reset()
		snap = s.publish(EventReset, nil).clone()
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("game reset")
	return snap, nil
}

// Snapshot returns the latest published state
func (s *Session) Snapshot() Snapshot {
	return s.snap.Load().clone()
}

// Observe registers fn for every published snapshot. fn runs on the session
// loop and must not block or call session methods that wait on the loop.
func (s *Session) Observe(fn func(Snapshot)) (cancel func()) {
	return s.hub.Observe(fn)
}

// Subscribe delivers snapshots on a buffered channel. A subscriber whose
// buffer fills up is dropped and its channel closed.
func (s *Session) Subscribe(buffer int) (<-chan Snapshot, func()) {
	return s.hub.Subscribe(buffer)
}

// WaitIdle blocks until no move is animating or pending
func (s *Session) WaitIdle(ctx context.Context) error {
	ready := make(chan struct{})
	err := s.do(ctx, func() {
		if s.sched.Idle() {
			close(ready)
			return
		}
		s.waiters = append(s.waiters, ready)
	})
	if err != nil {
		return err
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Animating reports whether a settle window is open
func (s *Session) Animating(ctx context.Context) (bool, error) {
	var animating bool
	err := s.do(ctx, func() { animating = !s.sched.Idle() })
	return animating, err
}

// History returns a copy of the committed moves
func (s *Session) History(ctx context.Context) ([]engine.MoveHistoryEntry, error) {
	var history []engine.MoveHistoryEntry
	err := s.do(ctx, func() {
		src := s.engine.GetMoveHistory()
		history = make([]engine.MoveHistoryEntry, len(src))
		copy(history, src)
	})
	return history, err
}

// SetBoard replaces the board, keeping score and history. Any animation in
// progress is cancelled. Used by tools and tests to start from a position.
func (s *Session) SetBoard(ctx context.Context, b engine.Board) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		s.sched.Reset()
		s.engine.SetBoard(b)
		snap = s.publish(EventSetup, nil).clone()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Touch records an access at the session clock's current time
func (s *Session) Touch() {
	s.lastAccessed.Store(s.clock.Now().UnixNano())
}

// LastAccessedAt returns the time of the last Touch
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// Close stops the loop and releases observers. Further calls return
// ErrSessionClosed.
func (s *Session) Close() error {
	err := ErrSessionClosed
	s.closeOnce.Do(func() {
		err = nil
		_ = s.loop.Post(func() {
			s.sched.Reset()
			s.releaseWaiters()
		})
		s.loop.Close()
		s.hub.Close()
		s.logger.Debug("session closed")
	})
	return err
}

func (s *Session) do(ctx context.Context, task func()) error {
	err := s.loop.Do(ctx, task)
	if errors.Is(err, scheduler.ErrLoopClosed) {
		return ErrSessionClosed
	}
	return err
}

// committed runs on the loop once per admitted move
func (s *Session) committed(res engine.MoveResult) {
	snap := s.publish(EventMove, &res)
	s.logger.Debug("move committed",
		zap.Stringer("direction", res.Direction),
		zap.Int("score_delta", res.ScoreDelta),
		zap.Int("score", snap.Score))
	if snap.Terminal {
		s.logger.Info("game over", zap.Int("score", snap.Score), zap.Int("moves", snap.Moves))
	}
}

func (s *Session) idle() {
	s.releaseWaiters()
}

func (s *Session) releaseWaiters() {
	for _, ch := range s.waiters {
		close(ch)
	}
	s.waiters = nil
}

func (s *Session) publish(event Event, last *engine.MoveResult) *Snapshot {
	s.seq++
	snap := newSnapshot(s.ID, s.seq, event, s.engine.GetState(), last)
	s.snap.Store(snap)
	s.hub.Broadcast(snap)
	return snap
}
