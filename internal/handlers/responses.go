package handlers

import (
	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/models"
)

// ShareLinkResponse is the response for the share link endpoint
type ShareLinkResponse struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// LeaderboardResponse is the response for the leaderboard endpoint
type LeaderboardResponse struct {
	RoomCode  string                 `json:"room_code"`
	Standings []leaderboard.Standing `json:"standings"`
}

// UsageResponse is the response for the card usage log
type UsageResponse struct {
	RoomCode string             `json:"room_code"`
	Usage    []models.CardUsage `json:"usage"`
}

// IDResponse is the response for create operations
type IDResponse struct {
	ID int64 `json:"id"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	BaseURL string `json:"base_url"`
}
