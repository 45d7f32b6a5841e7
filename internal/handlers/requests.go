package handlers

import "github.com/abrezinsky/quizattack/internal/models"

// CreateRoomRequest represents a request to open a new room
type CreateRoomRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
	GameMode string `json:"game_mode"`
}

// JoinRoomRequest represents a request to join a room
type JoinRoomRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

// ReadyRequest represents a player toggling ready in the lobby
type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// SettingsUpdateRequest represents a host's lobby settings change
type SettingsUpdateRequest struct {
	GameMode string              `json:"game_mode"`
	Settings models.GameSettings `json:"settings"`
}

// AnswerRequest represents a player's answer to the current question
type AnswerRequest struct {
	Answer *int `json:"answer"`
}

// UseCardRequest represents playing a card from the hand
type UseCardRequest struct {
	UniqueID string `json:"unique_id"`
}

// PackRequest represents a request to create or rename a quiz pack
type PackRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QuestionRequest represents a request to create or replace a question
type QuestionRequest struct {
	Text          string   `json:"text"`
	ImageURL      string   `json:"image_url"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

func (q QuestionRequest) toModel() models.Question {
	return models.Question{
		Text:          q.Text,
		ImageURL:      q.ImageURL,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
}

// BaseURLRequest represents a request to change the share link base URL
type BaseURLRequest struct {
	BaseURL string `json:"base_url"`
}
