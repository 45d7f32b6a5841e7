package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/quizattack/internal/models"
)

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// RoomRepository defines room data operations
type RoomRepository interface {
	CreateRoom(ctx context.Context, room models.Room, host models.Player) error
	RoomExists(ctx context.Context, code string) (bool, error)
	GetRoom(ctx context.Context, code string) (*models.Room, error)
	UpdateRoomSettings(ctx context.Context, code, gameMode string, settings models.GameSettings) error
	SetRoomStatus(ctx context.Context, code, status string) error
	DeleteRoom(ctx context.Context, code string) error
	DeleteRoomsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PlayerRepository defines room membership operations
type PlayerRepository interface {
	AddPlayer(ctx context.Context, code string, p models.Player) (int, error)
	ListPlayers(ctx context.Context, code string) ([]models.Player, error)
	NicknameTaken(ctx context.Context, code, nickname string) (bool, error)
	CountPlayers(ctx context.Context, code string) (int, error)
	SetPlayerReady(ctx context.Context, code, playerID string, ready bool) error
	RemovePlayer(ctx context.Context, code, playerID string) error
}

// PackRepository defines quiz pack and question operations
type PackRepository interface {
	ListPacks(ctx context.Context) ([]models.QuizPack, error)
	GetPack(ctx context.Context, id int) (*models.QuizPack, error)
	CreatePack(ctx context.Context, name, description string) (int64, error)
	UpdatePack(ctx context.Context, id int, name, description string) error
	DeletePack(ctx context.Context, id int) error
	CountPacks(ctx context.Context) (int, error)
	ListQuestions(ctx context.Context, packID int) ([]models.Question, error)
	CreateQuestion(ctx context.Context, packID int, q models.Question) (int64, error)
	UpdateQuestion(ctx context.Context, packID, id int, q models.Question) error
	DeleteQuestion(ctx context.Context, packID, id int) error
}

// BlobRepository stores opaque byte blobs by key
type BlobRepository interface {
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, value []byte) error
	DeleteBlob(ctx context.Context, key string) error
}

// FullRepository combines all repository interfaces
type FullRepository interface {
	SettingsRepository
	RoomRepository
	PlayerRepository
	PackRepository
	BlobRepository
}

var _ FullRepository = (*Repository)(nil)
