package engine

import (
	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/models"
)

// EventType names a game event. The values double as websocket message types.
type EventType string

const (
	EventQuestion       EventType = "question"
	EventTick           EventType = "tick"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
	EventAnswered       EventType = "answered"
	EventPlayerAnswered EventType = "player_answered"
	EventReveal         EventType = "reveal"
	EventLeaderboard    EventType = "leaderboard"
	EventCardDrawn      EventType = "card_drawn"
	EventCardUsed       EventType = "card_used"
	EventCardExpired    EventType = "card_expired"
	EventScore          EventType = "score"
	EventScoreExpired   EventType = "score_expired"
)

// Event is something observable that happened inside a game
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// PublicQuestion is a question without its answer
type PublicQuestion struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	ImageURL string   `json:"image_url,omitempty"`
	Options  []string `json:"options"`
}

func publicQuestion(q models.Question) PublicQuestion {
	return PublicQuestion{ID: q.ID, Text: q.Text, ImageURL: q.ImageURL, Options: q.Options}
}

type QuestionPayload struct {
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	Round    int            `json:"round"`
	TimeLeft int            `json:"time_left"`
	Question PublicQuestion `json:"question"`
}

type TickPayload struct {
	TimeLeft int `json:"time_left"`
}

type AnswerPayload struct {
	PlayerID  string `json:"player_id"`
	Answer    int    `json:"answer"`
	Correct   bool   `json:"correct"`
	Points    int    `json:"points"`
	Timeout   bool   `json:"timeout,omitempty"`
	Simulated bool   `json:"simulated,omitempty"`
}

// PlayerAnsweredPayload announces that a player has locked in an answer
// without saying which one
type PlayerAnsweredPayload struct {
	PlayerID    string `json:"player_id"`
	HasAnswered bool   `json:"has_answered"`
	Simulated   bool   `json:"simulated,omitempty"`
}

// RevealedAnswer is another player's result, published with the reveal
type RevealedAnswer struct {
	PlayerID  string `json:"player_id"`
	Correct   bool   `json:"correct"`
	Points    int    `json:"points"`
	Simulated bool   `json:"simulated,omitempty"`
}

// RevealPayload omits the answer and explanation when the room hides them
type RevealPayload struct {
	Selected      int              `json:"selected"`
	Correct       bool             `json:"correct"`
	CorrectAnswer *int             `json:"correct_answer,omitempty"`
	Explanation   string           `json:"explanation,omitempty"`
	Answers       []RevealedAnswer `json:"answers,omitempty"`
}

type LeaderboardPayload struct {
	Round     int                    `json:"round"`
	Standings []leaderboard.Standing `json:"standings"`
}

type CardDrawnPayload struct {
	PlayerID string      `json:"player_id"`
	Card     models.Card `json:"card"`
}

type CardUsedPayload struct {
	PlayerID string           `json:"player_id"`
	Key      string           `json:"key"`
	Card     models.Card      `json:"card"`
	Usage    models.CardUsage `json:"usage"`
}

type CardExpiredPayload struct {
	Key string `json:"key"`
}

type ScoreExpiredPayload struct {
	AnimationID string `json:"animation_id"`
}
