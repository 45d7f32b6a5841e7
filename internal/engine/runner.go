package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/abrezinsky/quizattack/internal/logger"
)

// ErrStopped is returned by Do once the runner has exited
var ErrStopped = errors.New("game session has stopped")

// Sink receives the events a game produced, in order
type Sink func(roomCode string, events []Event)

type command struct {
	fn    func(*Game) error
	reply chan error
}

// Runner owns a Game on a single goroutine and drives its clock with real
// timers. All access to the game goes through Do.
type Runner struct {
	game     *Game
	sink     Sink
	log      logger.Logger
	commands chan command
	done     chan struct{}
	started  atomic.Bool
	lastUsed atomic.Int64
	now      func() time.Time
}

func NewRunner(game *Game, sink Sink, log logger.Logger) *Runner {
	if sink == nil {
		sink = func(string, []Event) {}
	}
	r := &Runner{
		game:     game,
		sink:     sink,
		log:      log.With("room", game.RoomCode()),
		commands: make(chan command),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	r.touch()
	return r
}

// Run processes timers and commands until ctx is cancelled
func (r *Runner) Run(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	defer close(r.done)

	r.log.Debug("Game session started")
	defer r.log.Debug("Game session stopped")

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	last := r.now()

	for {
		r.flush()

		var due <-chan time.Time
		if d, ok := r.game.NextDue(); ok {
			timer.Reset(d)
			due = timer.C
		} else {
			timer.Stop()
		}

		var cmd *command
		select {
		case <-ctx.Done():
			return
		case <-due:
		case c := <-r.commands:
			cmd = &c
		}

		now := r.now()
		r.game.Advance(now.Sub(last))
		last = now

		if cmd != nil {
			cmd.reply <- cmd.fn(r.game)
		}
	}
}

func (r *Runner) flush() {
	if events := r.game.DrainEvents(); len(events) > 0 {
		r.sink(r.game.RoomCode(), events)
	}
}

// Do runs fn on the runner goroutine after bringing the clock up to date
func (r *Runner) Do(ctx context.Context, fn func(*Game) error) error {
	r.touch()
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case r.commands <- cmd:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot is a convenience wrapper around Do
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.Do(ctx, func(g *Game) error {
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

// Done is closed when Run returns
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// IdleSince reports the last time a command was submitted
func (r *Runner) IdleSince() time.Time {
	return time.Unix(0, r.lastUsed.Load())
}

func (r *Runner) touch() {
	r.lastUsed.Store(r.now().UnixNano())
}
