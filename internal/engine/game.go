// Package engine implements the live-play loop of a quiz room as a
// deterministic state machine driven by a virtual clock.
package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/quizattack/internal/cards"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/models"
)

// Phase is the state of the current round
type Phase string

const (
	PhaseCounting             Phase = "counting"
	PhaseAnswered             Phase = "answered"
	PhasePaused               Phase = "paused"
	PhaseShowingCorrectAnswer Phase = "showing_correct_answer"
	PhaseShowingLeaderboard   Phase = "showing_leaderboard"
)

// NoAnswer is the selection recorded when time runs out
const NoAnswer = -1

// CorrectPoints is awarded for every correct answer
const CorrectPoints = 100

var (
	ErrPaused          = errors.New("game is paused")
	ErrNotAccepting    = errors.New("answers are not being accepted right now")
	ErrInvalidOption   = errors.New("answer is not one of the options")
	ErrAlreadyAnswered = errors.New("player already answered this question")
	ErrUnknownPlayer   = errors.New("player is not in this game")
	ErrCardNotInHand   = errors.New("card is not in the player's hand")
	ErrCannotPause     = errors.New("game can only be paused while the timer is counting")
)

// Timings are the fixed delays of the play loop
type Timings struct {
	Tick        time.Duration
	Reveal      time.Duration
	Leaderboard time.Duration
	CardDraw    time.Duration
	ActiveCard  time.Duration
	ScorePopup  time.Duration
	OpponentMin time.Duration
	OpponentMax time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Tick:        time.Second,
		Reveal:      3 * time.Second,
		Leaderboard: 5 * time.Second,
		CardDraw:    1500 * time.Millisecond,
		ActiveCard:  2 * time.Second,
		ScorePopup:  2 * time.Second,
		OpponentMin: 5 * time.Second,
		OpponentMax: 20 * time.Second,
	}
}

func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.Tick, d.Tick)
	fill(&t.Reveal, d.Reveal)
	fill(&t.Leaderboard, d.Leaderboard)
	fill(&t.CardDraw, d.CardDraw)
	fill(&t.ActiveCard, d.ActiveCard)
	fill(&t.ScorePopup, d.ScorePopup)
	fill(&t.OpponentMin, d.OpponentMin)
	fill(&t.OpponentMax, d.OpponentMax)
	return t
}

// Options tune a Game. The zero value gives default timings, a randomly
// seeded generator, uuid identifiers and the default card catalog.
type Options struct {
	Timings Timings
	Rand    *rand.Rand
	NewID   func() string
	Catalog *cards.Catalog

	// SimulateOpponents makes players other than the acting one answer at random
	SimulateOpponents bool

	// ActingPlayerID is the player whose answer drives the round. Defaults to the host.
	ActingPlayerID string
}

// ActiveCard is a played card still on display
type ActiveCard struct {
	Key      string      `json:"key"`
	PlayerID string      `json:"player_id"`
	Card     models.Card `json:"card"`
}

// Game is the state of one room's play session. It is not safe for
// concurrent use; Runner serializes access.
type Game struct {
	roomCode  string
	gameMode  string
	settings  models.GameSettings
	questions []models.Question
	players   []models.Player
	index     map[string]int
	hands     map[string][]models.Card
	acting    string

	timings  Timings
	rng      *rand.Rand
	newID    func() string
	deck     *cards.Catalog
	simulate bool

	phase    Phase
	current  int
	round    int
	timeLeft int
	selected *int
	// simulated marks players whose answer this question was generated
	simulated map[string]bool
	deltas   []leaderboard.Delta
	active   []ActiveCard
	scores   []models.ScoreUpdate
	usage    []models.CardUsage

	now    time.Duration
	timers timerQueue
	events []Event
}

// New builds a game from a validated session and opens the first question
func New(session *gameconfig.Session, opts Options) (*Game, error) {
	if session == nil || len(session.Players) == 0 {
		return nil, errors.New("engine: session has no players")
	}
	if len(session.Questions) == 0 {
		return nil, errors.New("engine: session has no questions")
	}

	g := &Game{
		roomCode:  session.RoomCode,
		gameMode:  session.GameMode,
		settings:  session.Settings,
		questions: slices.Clone(session.Questions),
		players:   make([]models.Player, len(session.Players)),
		index:     make(map[string]int, len(session.Players)),
		hands:     make(map[string][]models.Card, len(session.Players)),
		timings:   opts.Timings.withDefaults(),
		rng:       opts.Rand,
		newID:     opts.NewID,
		simulate:  opts.SimulateOpponents,
		round:     1,
	}

	for i, p := range session.Players {
		p.Score, p.Cards, p.HasAnswered, p.SelectedAnswer = 0, 0, false, nil
		g.players[i] = p
		g.index[p.ID] = i
		g.hands[p.ID] = nil
	}

	g.acting = opts.ActingPlayerID
	if g.acting == "" {
		g.acting = session.ActingPlayer().ID
	}
	if _, ok := g.index[g.acting]; !ok {
		return nil, ErrUnknownPlayer
	}

	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = cards.Default()
	}
	g.deck = catalog.Filter(session.Settings.AllowedCards)
	if g.deck.Len() == 0 {
		g.deck = catalog
	}

	g.startQuestion()
	return g, nil
}

// SubmitAnswer records a player's answer to the current question. Correct
// answers score CorrectPoints and draw a card. Only the acting player's answer
// ends the round; other players are graded when it does, so nothing about
// their answer is published while the question is open.
func (g *Game) SubmitAnswer(playerID string, answer int) error {
	i, ok := g.index[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	switch g.phase {
	case PhaseCounting:
	case PhasePaused:
		return ErrPaused
	default:
		return ErrNotAccepting
	}
	if answer < NoAnswer || answer >= len(g.questions[g.current].Options) {
		return ErrInvalidOption
	}
	if g.players[i].HasAnswered {
		return ErrAlreadyAnswered
	}

	if playerID == g.acting {
		g.resolve(answer, false)
		return nil
	}
	g.mark(i, answer)
	g.emit(EventPlayerAnswered, PlayerAnsweredPayload{PlayerID: playerID, HasAnswered: true})
	return nil
}

// TogglePause switches between counting and paused. Resuming waits a full
// tick before the next decrement.
func (g *Game) TogglePause() error {
	switch g.phase {
	case PhaseCounting:
		g.timers.cancelKind(timerTick)
		g.phase = PhasePaused
		g.emit(EventPaused, TickPayload{TimeLeft: g.timeLeft})
	case PhasePaused:
		g.phase = PhaseCounting
		g.after(g.timings.Tick, &timer{kind: timerTick})
		g.emit(EventResumed, TickPayload{TimeLeft: g.timeLeft})
	default:
		return ErrCannotPause
	}
	return nil
}

// UseCard plays a card from a player's hand and logs it. The card's effect is
// published with the event but not applied to the game.
func (g *Game) UseCard(playerID, uniqueID string) (models.CardUsage, error) {
	i, ok := g.index[playerID]
	if !ok {
		return models.CardUsage{}, ErrUnknownPlayer
	}
	hand := g.hands[playerID]
	pos := slices.IndexFunc(hand, func(c models.Card) bool { return c.UniqueID == uniqueID })
	if uniqueID == "" || pos < 0 {
		return models.CardUsage{}, ErrCardNotInHand
	}

	card := hand[pos]
	g.hands[playerID] = slices.Delete(hand, pos, pos+1)
	p := &g.players[i]
	p.Cards--

	usage := models.CardUsage{
		PlayerName:      p.Nickname,
		CardTitle:       card.Name,
		Round:           g.round,
		QuestionNumber:  g.current + 1,
		CardDescription: card.Description,
	}
	g.usage = append(g.usage, usage)

	key := g.newID()
	g.active = append(g.active, ActiveCard{Key: key, PlayerID: playerID, Card: card})
	g.after(g.timings.ActiveCard, &timer{kind: timerActiveExpire, key: key})
	g.emit(EventCardUsed, CardUsedPayload{PlayerID: playerID, Key: key, Card: card, Usage: usage})
	return usage, nil
}

// Advance moves the virtual clock forward, firing every timer that comes due
// in order.
func (g *Game) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	target := g.now + d
	for {
		t := g.timers.popDue(target)
		if t == nil {
			break
		}
		g.now = t.at
		g.fire(t)
	}
	g.now = target
}

// NextDue reports how long until the next timer fires
func (g *Game) NextDue() (time.Duration, bool) {
	t, _ := g.timers.next()
	if t == nil {
		return 0, false
	}
	return max(t.at-g.now, 0), true
}

// DrainEvents returns and clears the events produced since the last call
func (g *Game) DrainEvents() []Event {
	events := g.events
	g.events = nil
	return events
}

func (g *Game) fire(t *timer) {
	switch t.kind {
	case timerTick:
		g.tick()
	case timerReveal:
		g.showLeaderboard()
	case timerAdvance:
		g.nextQuestion()
	case timerOpponent:
		g.simulateAnswer(t.playerID)
	case timerCardDraw:
		g.drawCard(t.playerID)
	case timerActiveExpire:
		g.active = slices.DeleteFunc(g.active, func(a ActiveCard) bool { return a.Key == t.key })
		g.emit(EventCardExpired, CardExpiredPayload{Key: t.key})
	case timerScoreExpire:
		g.scores = slices.DeleteFunc(g.scores, func(s models.ScoreUpdate) bool { return s.AnimationID == t.key })
		g.emit(EventScoreExpired, ScoreExpiredPayload{AnimationID: t.key})
	}
}

func (g *Game) startQuestion() {
	g.timers.cancelKind(timerTick, timerReveal, timerAdvance, timerOpponent)
	g.phase = PhaseCounting
	g.timeLeft = max(g.settings.TimePerQuestion, 0)
	g.selected = nil
	g.deltas = nil
	g.simulated = make(map[string]bool)
	for i := range g.players {
		g.players[i].HasAnswered = false
		g.players[i].SelectedAnswer = nil
	}

	g.emit(EventQuestion, QuestionPayload{
		Index:    g.current,
		Total:    len(g.questions),
		Round:    g.round,
		TimeLeft: g.timeLeft,
		Question: publicQuestion(g.questions[g.current]),
	})

	if g.simulate {
		span := g.timings.OpponentMax - g.timings.OpponentMin
		for _, p := range g.players {
			if p.ID == g.acting {
				continue
			}
			delay := g.timings.OpponentMin
			if span > 0 {
				delay += time.Duration(g.rng.Int64N(int64(span)))
			}
			g.after(delay, &timer{kind: timerOpponent, playerID: p.ID})
		}
	}

	if g.timeLeft == 0 {
		g.resolve(NoAnswer, true)
		return
	}
	g.after(g.timings.Tick, &timer{kind: timerTick})
}

func (g *Game) tick() {
	if g.phase != PhaseCounting {
		return
	}
	g.timeLeft--
	g.emit(EventTick, TickPayload{TimeLeft: g.timeLeft})
	if g.timeLeft <= 0 {
		g.timeLeft = 0
		g.resolve(NoAnswer, true)
		return
	}
	g.after(g.timings.Tick, &timer{kind: timerTick})
}

// resolve locks in the acting player's answer and starts the reveal sequence
func (g *Game) resolve(answer int, timeout bool) {
	g.timers.cancelKind(timerTick)
	i := g.index[g.acting]
	g.mark(i, answer)
	payload := g.grade(i)
	payload.Timeout = timeout
	sel := answer
	g.selected = &sel
	g.phase = PhaseAnswered
	g.emit(EventAnswered, payload)
	if payload.Points > 0 {
		g.award(i, payload.Points)
	}

	q := g.questions[g.current]
	reveal := RevealPayload{Selected: answer, Correct: payload.Correct}
	for j := range g.players {
		if j == i || !g.players[j].HasAnswered {
			continue
		}
		graded := g.grade(j)
		reveal.Answers = append(reveal.Answers, RevealedAnswer{
			PlayerID:  graded.PlayerID,
			Correct:   graded.Correct,
			Points:    graded.Points,
			Simulated: graded.Simulated,
		})
		if graded.Points > 0 {
			g.award(j, graded.Points)
		}
	}
	if g.settings.ShowCorrectAnswer {
		correct := q.CorrectAnswer
		reveal.CorrectAnswer = &correct
		reveal.Explanation = q.Explanation
	}
	g.phase = PhaseShowingCorrectAnswer
	g.emit(EventReveal, reveal)
	g.after(g.timings.Reveal, &timer{kind: timerReveal})
}

// mark records player i's answer for the current question
func (g *Game) mark(i int, answer int) {
	p := &g.players[i]
	p.HasAnswered = true
	sel := answer
	p.SelectedAnswer = &sel
	g.timers.cancelPlayer(timerOpponent, p.ID)
}

// grade checks player i's marked answer. Simulated answers are never worth points.
func (g *Game) grade(i int) AnswerPayload {
	p := g.players[i]
	answer := NoAnswer
	if p.SelectedAnswer != nil {
		answer = *p.SelectedAnswer
	}
	simulated := g.simulated[p.ID]
	correct := answer != NoAnswer && answer == g.questions[g.current].CorrectAnswer
	payload := AnswerPayload{PlayerID: p.ID, Answer: answer, Correct: correct, Simulated: simulated}
	if correct && !simulated {
		payload.Points = CorrectPoints
	}
	return payload
}

func (g *Game) award(i, points int) {
	p := &g.players[i]
	prev := p.Score
	p.Score += points
	g.deltas = append(g.deltas, leaderboard.Delta{PlayerID: p.ID, Previous: prev, Points: points, Current: p.Score})

	update := models.ScoreUpdate{PlayerID: p.ID, Points: points, AnimationID: g.newID()}
	g.scores = append(g.scores, update)
	g.emit(EventScore, update)
	g.after(g.timings.ScorePopup, &timer{kind: timerScoreExpire, key: update.AnimationID})
	g.after(g.timings.CardDraw, &timer{kind: timerCardDraw, playerID: p.ID})
}

func (g *Game) simulateAnswer(playerID string) {
	i, ok := g.index[playerID]
	if !ok || g.players[i].HasAnswered {
		return
	}
	answer := g.rng.IntN(len(g.questions[g.current].Options))
	g.mark(i, answer)
	g.simulated[playerID] = true
	g.emit(EventPlayerAnswered, PlayerAnsweredPayload{PlayerID: playerID, HasAnswered: true, Simulated: true})
}

func (g *Game) drawCard(playerID string) {
	card, ok := g.deck.Draw(g.rng, g.newID)
	if !ok {
		return
	}
	g.hands[playerID] = append(g.hands[playerID], card)
	g.players[g.index[playerID]].Cards++
	g.emit(EventCardDrawn, CardDrawnPayload{PlayerID: playerID, Card: card})
}

func (g *Game) showLeaderboard() {
	g.phase = PhaseShowingLeaderboard
	g.emit(EventLeaderboard, LeaderboardPayload{Round: g.round, Standings: g.Standings()})
	g.after(g.timings.Leaderboard, &timer{kind: timerAdvance})
}

func (g *Game) nextQuestion() {
	g.current++
	if g.current >= len(g.questions) {
		g.current = 0
		g.round++
	}
	g.startQuestion()
}

func (g *Game) after(d time.Duration, t *timer) {
	t.at = g.now + d
	g.timers.schedule(t)
}

func (g *Game) emit(typ EventType, payload any) {
	g.events = append(g.events, Event{Type: typ, Payload: payload})
}
