package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/models"
)

// Snapshot is a copy of everything a client needs to render the game
type Snapshot struct {
	RoomCode       string                   `json:"room_code"`
	GameMode       string                   `json:"game_mode"`
	Phase          Phase                    `json:"phase"`
	Round          int                      `json:"round"`
	QuestionIndex  int                      `json:"question_index"`
	QuestionCount  int                      `json:"question_count"`
	TimeLeft       int                      `json:"time_left"`
	Question       PublicQuestion           `json:"question"`
	CorrectAnswer  *int                     `json:"correct_answer,omitempty"`
	Explanation    string                   `json:"explanation,omitempty"`
	Selected       *int                     `json:"selected"`
	ActingPlayerID string                   `json:"acting_player_id"`
	Settings       models.GameSettings      `json:"settings"`
	Players        []models.Player          `json:"players"`
	Hands          map[string][]models.Card `json:"hands"`
	ActiveCards    []ActiveCard             `json:"active_cards"`
	ScoreUpdates   []models.ScoreUpdate     `json:"score_updates"`
	Usage          []models.CardUsage       `json:"usage"`
	Standings      []leaderboard.Standing   `json:"standings"`
}

// Snapshot copies the current state
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		RoomCode:       g.roomCode,
		GameMode:       g.gameMode,
		Phase:          g.phase,
		Round:          g.round,
		QuestionIndex:  g.current,
		QuestionCount:  len(g.questions),
		TimeLeft:       g.timeLeft,
		Question:       publicQuestion(g.questions[g.current]),
		ActingPlayerID: g.acting,
		Settings:       g.settings,
		Players:        g.Players(),
		Hands:          make(map[string][]models.Card, len(g.hands)),
		ActiveCards:    slices.Clone(g.active),
		ScoreUpdates:   slices.Clone(g.scores),
		Usage:          g.Usage(),
		Standings:      g.Standings(),
	}
	if g.selected != nil {
		sel := *g.selected
		s.Selected = &sel
	}
	if !g.revealing() {
		// picks stay private until the reveal
		for i := range s.Players {
			s.Players[i].SelectedAnswer = nil
		}
	}
	if g.revealing() && g.settings.ShowCorrectAnswer {
		q := g.questions[g.current]
		correct := q.CorrectAnswer
		s.CorrectAnswer = &correct
		s.Explanation = q.Explanation
	}
	for id, hand := range g.hands {
		s.Hands[id] = slices.Clone(hand)
	}
	return s
}

func (g *Game) revealing() bool {
	return g.phase == PhaseShowingCorrectAnswer || g.phase == PhaseShowingLeaderboard
}

func (g *Game) RoomCode() string { return g.roomCode }
func (g *Game) Phase() Phase { return g.phase }
func (g *Game) Round() int { return g.round }
func (g *Game) CurrentIndex() int { return g.current }
func (g *Game) TimeLeft() int { return g.timeLeft }
func (g *Game) ActingPlayerID() string { return g.acting }
func (g *Game) Now() time.Duration { return g.now }
func (g *Game) QuestionCount() int { return len(g.questions) }
func (g *Game) CurrentQuestion() models.Question {
	return g.questions[g.current]
}

// Player returns a copy of one player
func (g *Game) Player(id string) (models.Player, bool) {
	i, ok := g.index[id]
	if !ok {
		return models.Player{}, false
	}
	return g.players[i], true
}

// Players returns the players in join order
func (g *Game) Players() []models.Player {
	return slices.Clone(g.players)
}

// Hand returns a copy of a player's cards
func (g *Game) Hand(playerID string) []models.Card {
	return slices.Clone(g.hands[playerID])
}

// Hands returns a copy of every hand keyed by player ID
func (g *Game) Hands() map[string][]models.Card {
	out := maps.Clone(g.hands)
	for id, hand := range out {
		out[id] = slices.Clone(hand)
	}
	return out
}

// Usage returns the card log, oldest first
func (g *Game) Usage() []models.CardUsage {
	return slices.Clone(g.usage)
}

func (g *Game) ActiveCards() []ActiveCard {
	return slices.Clone(g.active)
}

func (g *Game) ScoreUpdates() []models.ScoreUpdate {
	return slices.Clone(g.scores)
}

// Standings projects the leaderboard, carrying this round's deltas
func (g *Game) Standings() []leaderboard.Standing {
	return leaderboard.Project(g.players, g.deltas...)
}

// Deltas returns the score changes made since the current question opened
func (g *Game) Deltas() []leaderboard.Delta {
	return slices.Clone(g.deltas)
}
