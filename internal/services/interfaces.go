package services

import (
	"context"
	"time"

	"github.com/abrezinsky/quizattack/internal/engine"
	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/models"
)

// RoomServicer defines the interface for lobby operations
type RoomServicer interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*Membership, error)
	GetRoom(ctx context.Context, code string) (*models.Room, error)
	JoinRoom(ctx context.Context, code string, req JoinRoomRequest) (*Membership, error)
	SetReady(ctx context.Context, code, playerID string, ready bool) error
	LeaveRoom(ctx context.Context, code, playerID string) error
	UpdateSettings(ctx context.Context, code, playerID string, update RoomSettings) (*models.Room, error)
	ShareLink(ctx context.Context, code string) (string, error)
	StartGame(ctx context.Context, code, playerID string) (*models.Room, error)
	EndGame(ctx context.Context, code, playerID string) (*models.Room, error)
	PurgeStaleRooms(ctx context.Context, maxAge time.Duration) (int64, error)
	SetBroadcaster(b Broadcaster)
}

// PackServicer defines the interface for quiz pack operations
type PackServicer interface {
	ListPacks(ctx context.Context) ([]models.QuizPack, error)
	GetPack(ctx context.Context, id int) (*models.QuizPack, error)
	CreatePack(ctx context.Context, name, description string) (int64, error)
	UpdatePack(ctx context.Context, id int, name, description string) error
	DeletePack(ctx context.Context, id int) error
	AddQuestion(ctx context.Context, packID int, q models.Question) (int64, error)
	UpdateQuestion(ctx context.Context, packID, id int, q models.Question) error
	DeleteQuestion(ctx context.Context, packID, id int) error
	DefaultPackID(ctx context.Context) (int, error)
	SeedDefaultPack(ctx context.Context) (int, error)
}

// PlayServicer defines the interface for live game operations
type PlayServicer interface {
	Start(ctx context.Context, code string) (engine.Snapshot, error)
	Ensure(ctx context.Context, code string) (engine.Snapshot, error)
	Running(code string) bool
	Answer(ctx context.Context, code, playerID string, answer int) error
	TogglePause(ctx context.Context, code, playerID string) error
	UseCard(ctx context.Context, code, playerID, uniqueID string) (models.CardUsage, error)
	State(ctx context.Context, code string) (engine.Snapshot, error)
	Leaderboard(ctx context.Context, code string) ([]leaderboard.Standing, error)
	Usage(ctx context.Context, code string) ([]models.CardUsage, error)
	Stop(code string) bool
	SetBroadcaster(b Broadcaster)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
}

// Ensure concrete types implement interfaces
var (
	_ RoomServicer     = (*RoomService)(nil)
	_ PackServicer     = (*PackService)(nil)
	_ PlayServicer     = (*PlayService)(nil)
	_ SettingsServicer = (*SettingsService)(nil)
)
