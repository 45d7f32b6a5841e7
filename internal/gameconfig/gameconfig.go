// Package gameconfig reads, validates and writes the config blob a lobby hands to the play loop.
package gameconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/abrezinsky/quizattack/internal/errors"
	"github.com/abrezinsky/quizattack/internal/models"
)

// KeyPrefix is prepended to the room code to form the storage key
const KeyPrefix = "quizConfig-"

// RedirectDelay is how long a failed load shows its message before returning home
const RedirectDelay = 2 * time.Second

// Key returns the storage key for a room's config
func Key(roomCode string) string {
	return KeyPrefix + roomCode
}

// Reason classifies why a config could not be loaded
type Reason string

const (
	ReasonMissing         Reason = "missing"
	ReasonUnavailable     Reason = "unavailable"
	ReasonMalformed       Reason = "malformed"
	ReasonRoomMismatch    Reason = "room_mismatch"
	ReasonNoPlayers       Reason = "no_players"
	ReasonNoSettings      Reason = "no_settings"
	ReasonNoQuestions     Reason = "no_questions"
	ReasonInvalidQuestion Reason = "invalid_question"
)

// LoadError is the failure variant of Load and Parse. The session is aborted and
// the client should show Message, then go to RedirectTo after RedirectAfter.
type LoadError struct {
	RoomCode      string
	Reason        Reason
	Message       string
	RedirectTo    string
	RedirectAfter time.Duration
	Err           error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("game config for room %s: %s: %v", e.RoomCode, e.Message, e.Err)
	}
	return fmt.Sprintf("game config for room %s: %s", e.RoomCode, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadError(code string, reason Reason, msg string, err error) *LoadError {
	return &LoadError{
		RoomCode:      code,
		Reason:        reason,
		Message:       msg,
		RedirectTo:    "/",
		RedirectAfter: RedirectDelay,
		Err:           err,
	}
}

// Session is a validated config, ready for the play loop
type Session struct {
	RoomCode  string
	GameMode  string
	Settings  models.GameSettings
	Players   []models.Player
	Questions []models.Question
}

// ActingPlayer returns the host, or the first player when no host is flagged
func (s *Session) ActingPlayer() models.Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return s.Players[0]
}

type rawConfig struct {
	RoomCode         string                `json:"roomCode"`
	SelectedGameMode string                `json:"selectedGameMode"`
	GameSettings     json.RawMessage       `json:"gameSettings"`
	Players          []models.ConfigPlayer `json:"players"`
	Questions        json.RawMessage       `json:"questions"`
}

type rawQuestion struct {
	Question      string          `json:"question"`
	ImageURL      string          `json:"imageUrl"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
}

// Load fetches and validates the config for roomCode. Every failure is a *LoadError.
func Load(ctx context.Context, store Store, roomCode string) (*Session, error) {
	blob, err := store.Get(ctx, Key(roomCode))
	if errors.Is(err, ErrNotFound) {
		return nil, loadError(roomCode, ReasonMissing, "No game configuration found for this room", nil)
	}
	if err != nil {
		return nil, loadError(roomCode, ReasonUnavailable, "Could not read the game configuration", err)
	}
	return Parse(roomCode, blob)
}

// Parse validates a serialized config against the requested room code
func Parse(roomCode string, blob []byte) (*Session, error) {
	var raw rawConfig
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, loadError(roomCode, ReasonMalformed, "Game configuration is corrupted", err)
	}

	if raw.RoomCode != roomCode {
		return nil, loadError(roomCode, ReasonRoomMismatch, "Game configuration belongs to a different room", nil)
	}
	if len(raw.Players) == 0 {
		return nil, loadError(roomCode, ReasonNoPlayers, "Game configuration has no players", nil)
	}
	if isAbsent(raw.GameSettings) {
		return nil, loadError(roomCode, ReasonNoSettings, "Game configuration has no game settings", nil)
	}

	var settings models.GameSettings
	if err := json.Unmarshal(raw.GameSettings, &settings); err != nil {
		return nil, loadError(roomCode, ReasonMalformed, "Game settings are corrupted", err)
	}

	questions, err := parseQuestions(roomCode, raw.Questions)
	if err != nil {
		return nil, err
	}

	return &Session{
		RoomCode:  roomCode,
		GameMode:  raw.SelectedGameMode,
		Settings:  settings,
		Players:   convertPlayers(raw.Players),
		Questions: questions,
	}, nil
}

func parseQuestions(roomCode string, data json.RawMessage) ([]models.Question, error) {
	var items []json.RawMessage
	if isAbsent(data) || json.Unmarshal(data, &items) != nil || len(items) == 0 {
		return nil, loadError(roomCode, ReasonNoQuestions, "Game configuration has no questions", nil)
	}

	questions := make([]models.Question, 0, len(items))
	for i, item := range items {
		q, err := parseQuestion(item)
		if err != nil {
			return nil, loadError(roomCode, ReasonInvalidQuestion,
				fmt.Sprintf("Question %d is invalid: %s", i+1, err.Error()), nil)
		}
		q.ID = i + 1
		questions = append(questions, q)
	}
	return questions, nil
}

func parseQuestion(data json.RawMessage) (models.Question, error) {
	var raw rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Question{}, errors.New("not an object")
	}

	var options []string
	if isAbsent(raw.Options) || json.Unmarshal(raw.Options, &options) != nil {
		return models.Question{}, errors.New("options must be a list of strings")
	}

	answer, ok := parseIndex(raw.CorrectAnswer)
	if !ok {
		return models.Question{}, errors.New("correct answer must be an integer")
	}

	q := models.Question{
		Text:          raw.Question,
		ImageURL:      raw.ImageURL,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   raw.Explanation,
	}
	if err := checkQuestion(q); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// parseIndex accepts JSON numbers with no fractional part
func parseIndex(data json.RawMessage) (int, bool) {
	if isAbsent(data) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func checkQuestion(q models.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) < 2 {
		return errors.New("at least 2 options are required")
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("correct answer %d is out of range", q.CorrectAnswer)
	}
	return nil
}

// ValidateQuestion applies the loader's question rules to a stored question
func ValidateQuestion(q models.Question) error {
	if err := checkQuestion(q); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

func convertPlayers(in []models.ConfigPlayer) []models.Player {
	players := make([]models.Player, len(in))
	for i, p := range in {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("player-%d", i+1)
		}
		nickname := p.Nickname
		if nickname == "" {
			nickname = p.Name
		}
		if nickname == "" {
			nickname = fmt.Sprintf("Player %d", i+1)
		}
		players[i] = models.Player{
			ID:        id,
			Nickname:  nickname,
			Avatar:    p.Avatar,
			IsHost:    p.IsHost,
			IsReady:   p.IsReady,
			JoinOrder: i,
		}
	}
	return players
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Encode serializes a config and checks that Parse would accept it
func Encode(cfg models.GameConfig) ([]byte, error) {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := Parse(cfg.RoomCode, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// Save encodes cfg and writes it under the room's key
func Save(ctx context.Context, store Store, cfg models.GameConfig) error {
	blob, err := Encode(cfg)
	if err != nil {
		return err
	}
	return store.Put(ctx, Key(cfg.RoomCode), blob)
}
