package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abrezinsky/quizattack/internal/cards"
	"github.com/abrezinsky/quizattack/internal/engine"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/models"
)

// MsgState carries a full engine snapshot
const MsgState = "state"

const mirrorTimeout = 2 * time.Second

// LeaderboardStore keeps standings readable after a session stops
type LeaderboardStore interface {
	Record(ctx context.Context, roomCode string, standings []leaderboard.Standing) error
	Top(ctx context.Context, roomCode string, n int) ([]leaderboard.Standing, error)
}

// PlayOptions configure every session a PlayService starts
type PlayOptions struct {
	Timings           engine.Timings
	SimulateOpponents bool
	Catalog           *cards.Catalog
	Leaderboard       LeaderboardStore

	// NewRand seeds each game; nil uses a random seed
	NewRand func() *rand.Rand
}

type playSession struct {
	runner *engine.Runner
	cancel context.CancelFunc
}

// PlayService runs one engine.Runner per room
type PlayService struct {
	log         logger.Logger
	configs     gameconfig.Store
	opts        PlayOptions
	broadcaster Broadcaster

	mu       sync.Mutex
	sessions map[string]*playSession
	root     context.Context
	shutdown context.CancelFunc
	mirrors  sync.WaitGroup
}

// NewPlayService creates a new PlayService
func NewPlayService(log logger.Logger, configs gameconfig.Store, opts PlayOptions) *PlayService {
	root, shutdown := context.WithCancel(context.Background())
	return &PlayService{
		log:      log,
		configs:  configs,
		opts:     opts,
		sessions: make(map[string]*playSession),
		root:     root,
		shutdown: shutdown,
	}
}

// SetBroadcaster sets where engine events are sent
func (s *PlayService) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Start loads the room's game config and starts its session. A config that is
// missing or invalid comes back as a *gameconfig.LoadError.
func (s *PlayService) Start(ctx context.Context, code string) (engine.Snapshot, error) {
	code = NormalizeCode(code)

	s.mu.Lock()
	if sess, ok := s.sessions[code]; ok && !stopped(sess) {
		s.mu.Unlock()
		return engine.Snapshot{}, ErrGameRunning
	}
	s.mu.Unlock()

	return s.launch(ctx, code)
}

// Ensure returns the running session's state, starting it from the stored
// config when none is running
func (s *PlayService) Ensure(ctx context.Context, code string) (engine.Snapshot, error) {
	code = NormalizeCode(code)
	if sess := s.session(code); sess != nil {
		snap, err := sess.runner.Snapshot(ctx)
		if err == nil {
			return snap, nil
		}
		if err != engine.ErrStopped {
			return engine.Snapshot{}, err
		}
	}
	return s.launch(ctx, code)
}

func (s *PlayService) launch(ctx context.Context, code string) (engine.Snapshot, error) {
	session, err := gameconfig.Load(ctx, s.configs, code)
	if err != nil {
		s.log.Warn("Game config rejected", "room", code, "error", err)
		return engine.Snapshot{}, err
	}

	opts := engine.Options{
		Timings:           s.opts.Timings,
		Catalog:           s.opts.Catalog,
		SimulateOpponents: s.opts.SimulateOpponents,
	}
	if s.opts.NewRand != nil {
		opts.Rand = s.opts.NewRand()
	}
	game, err := engine.New(session, opts)
	if err != nil {
		return engine.Snapshot{}, err
	}

	s.mu.Lock()
	if sess, ok := s.sessions[code]; ok && !stopped(sess) {
		s.mu.Unlock()
		return engine.Snapshot{}, ErrGameRunning
	}
	runCtx, cancel := context.WithCancel(s.root)
	sess := &playSession{runner: engine.NewRunner(game, s.publish, s.log), cancel: cancel}
	s.sessions[code] = sess
	s.mu.Unlock()

	go sess.runner.Run(runCtx)
	s.log.Info("Play session started", "room", code, "players", len(session.Players), "questions", len(session.Questions))

	snap, err := sess.runner.Snapshot(ctx)
	return snap, playError(err)
}

// publish is the runner sink: it forwards events to the room and mirrors
// standings into the leaderboard store
func (s *PlayService) publish(code string, events []engine.Event) {
	s.mu.Lock()
	b := s.broadcaster
	s.mu.Unlock()

	for _, e := range events {
		if b != nil {
			b.BroadcastRoom(code, string(e.Type), e.Payload)
		}
		if lb, ok := e.Payload.(engine.LeaderboardPayload); ok && s.opts.Leaderboard != nil {
			s.mirror(code, lb.Standings)
		}
	}
}

func (s *PlayService) mirror(code string, standings []leaderboard.Standing) {
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := s.opts.Leaderboard.Record(ctx, code, standings); err != nil {
			s.log.Warn("Failed to mirror leaderboard", "room", code, "error", err)
		}
	}()
}

func (s *PlayService) session(code string) *playSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[NormalizeCode(code)]
}

func (s *PlayService) do(ctx context.Context, code string, fn func(*engine.Game) error) error {
	sess := s.session(code)
	if sess == nil {
		return ErrNoGame
	}
	return playError(sess.runner.Do(ctx, fn))
}

// Running reports whether a session is live for the room
func (s *PlayService) Running(code string) bool {
	sess := s.session(code)
	return sess != nil && !stopped(sess)
}

// Answer submits a player's answer to the current question
func (s *PlayService) Answer(ctx context.Context, code, playerID string, answer int) error {
	return s.do(ctx, code, func(g *engine.Game) error {
		return g.SubmitAnswer(playerID, answer)
	})
}

// TogglePause pauses or resumes the countdown. Only the host may do this.
func (s *PlayService) TogglePause(ctx context.Context, code, playerID string) error {
	return s.do(ctx, code, func(g *engine.Game) error {
		if g.ActingPlayerID() != playerID {
			return ErrNotHost
		}
		return g.TogglePause()
	})
}

// UseCard plays a card from the player's hand
func (s *PlayService) UseCard(ctx context.Context, code, playerID, uniqueID string) (models.CardUsage, error) {
	var usage models.CardUsage
	err := s.do(ctx, code, func(g *engine.Game) error {
		var err error
		usage, err = g.UseCard(playerID, uniqueID)
		return err
	})
	return usage, err
}

// State returns a snapshot of the room's game
func (s *PlayService) State(ctx context.Context, code string) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := s.do(ctx, code, func(g *engine.Game) error {
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

// Leaderboard returns live standings, or the mirrored ones once the session
// has stopped
func (s *PlayService) Leaderboard(ctx context.Context, code string) ([]leaderboard.Standing, error) {
	var standings []leaderboard.Standing
	err := s.do(ctx, code, func(g *engine.Game) error {
		standings = g.Standings()
		return nil
	})
	if err == nil {
		return standings, nil
	}
	if err != ErrNoGame || s.opts.Leaderboard == nil {
		return nil, err
	}

	standings, lbErr := s.opts.Leaderboard.Top(ctx, NormalizeCode(code), 0)
	if lbErr != nil {
		return nil, lbErr
	}
	if len(standings) == 0 {
		return nil, ErrNoGame
	}
	return standings, nil
}

// Usage returns the room's card usage log
func (s *PlayService) Usage(ctx context.Context, code string) ([]models.CardUsage, error) {
	var usage []models.CardUsage
	err := s.do(ctx, code, func(g *engine.Game) error {
		usage = g.Usage()
		return nil
	})
	return usage, err
}

// Stop ends a room's session. It reports whether one was running.
func (s *PlayService) Stop(code string) bool {
	code = NormalizeCode(code)
	s.mu.Lock()
	sess, ok := s.sessions[code]
	delete(s.sessions, code)
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.cancel()
	<-sess.runner.Done()
	s.log.Info("Play session stopped", "room", code)
	return true
}

// Close stops every session and waits for pending leaderboard writes
func (s *PlayService) Close() {
	s.shutdown()
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*playSession)
	s.mu.Unlock()

	for _, sess := range sessions {
		<-sess.runner.Done()
	}
	s.mirrors.Wait()
}

// StartReaper stops sessions with no commands for idleTimeout. It blocks
// until ctx is done.
func (s *PlayService) StartReaper(ctx context.Context, idleTimeout time.Duration) {
	if idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ReapIdle(time.Now().Add(-idleTimeout))
		}
	}
}

// ReapIdle stops sessions idle since before cutoff and returns their room codes
func (s *PlayService) ReapIdle(cutoff time.Time) []string {
	s.mu.Lock()
	var idle []string
	for code, sess := range s.sessions {
		if stopped(sess) || sess.runner.IdleSince().Before(cutoff) {
			idle = append(idle, code)
		}
	}
	s.mu.Unlock()

	for _, code := range idle {
		s.Stop(code)
		s.log.Info("Reaped idle play session", "room", code)
	}
	return idle
}

func stopped(sess *playSession) bool {
	select {
	case <-sess.runner.Done():
		return true
	default:
		return false
	}
}
