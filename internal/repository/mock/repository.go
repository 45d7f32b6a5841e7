package mock

import (
	"context"

	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.AddPlayerError = errors.New("database error")
//	svc := services.NewRoomService(log, mockRepo, ...)
type Repository struct {
	repository.FullRepository

	// ===== Room Errors =====
	CreateRoomError         error
	RoomExistsError         error
	GetRoomError            error
	UpdateRoomSettingsError error
	SetRoomStatusError      error

	// ===== Player Errors =====
	AddPlayerError      error
	ListPlayersError    error
	NicknameTakenError  error
	CountPlayersError   error
	SetPlayerReadyError error

	// ===== Pack Errors =====
	ListPacksError      error
	GetPackError        error
	CreatePackError     error
	CountPacksError     error
	CreateQuestionError error

	// ===== Settings / Blob Errors =====
	GetSettingError error
	SetSettingError error
	PutBlobError    error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{FullRepository: real}
}

// ===== Room Methods =====

func (m *Repository) CreateRoom(ctx context.Context, room models.Room, host models.Player) error {
	if m.CreateRoomError != nil {
		return m.CreateRoomError
	}
	return m.FullRepository.CreateRoom(ctx, room, host)
}

func (m *Repository) RoomExists(ctx context.Context, code string) (bool, error) {
	if m.RoomExistsError != nil {
		return false, m.RoomExistsError
	}
	return m.FullRepository.RoomExists(ctx, code)
}

func (m *Repository) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	if m.GetRoomError != nil {
		return nil, m.GetRoomError
	}
	return m.FullRepository.GetRoom(ctx, code)
}

func (m *Repository) UpdateRoomSettings(ctx context.Context, code, gameMode string, settings models.GameSettings) error {
	if m.UpdateRoomSettingsError != nil {
		return m.UpdateRoomSettingsError
	}
	return m.FullRepository.UpdateRoomSettings(ctx, code, gameMode, settings)
}

func (m *Repository) SetRoomStatus(ctx context.Context, code, status string) error {
	if m.SetRoomStatusError != nil {
		return m.SetRoomStatusError
	}
	return m.FullRepository.SetRoomStatus(ctx, code, status)
}

// ===== Player Methods =====

func (m *Repository) AddPlayer(ctx context.Context, code string, p models.Player) (int, error) {
	if m.AddPlayerError != nil {
		return 0, m.AddPlayerError
	}
	return m.FullRepository.AddPlayer(ctx, code, p)
}

func (m *Repository) ListPlayers(ctx context.Context, code string) ([]models.Player, error) {
	if m.ListPlayersError != nil {
		return nil, m.ListPlayersError
	}
	return m.FullRepository.ListPlayers(ctx, code)
}

func (m *Repository) NicknameTaken(ctx context.Context, code, nickname string) (bool, error) {
	if m.NicknameTakenError != nil {
		return false, m.NicknameTakenError
	}
	return m.FullRepository.NicknameTaken(ctx, code, nickname)
}

func (m *Repository) CountPlayers(ctx context.Context, code string) (int, error) {
	if m.CountPlayersError != nil {
		return 0, m.CountPlayersError
	}
	return m.FullRepository.CountPlayers(ctx, code)
}

func (m *Repository) SetPlayerReady(ctx context.Context, code, playerID string, ready bool) error {
	if m.SetPlayerReadyError != nil {
		return m.SetPlayerReadyError
	}
	return m.FullRepository.SetPlayerReady(ctx, code, playerID, ready)
}

// ===== Pack Methods =====

func (m *Repository) ListPacks(ctx context.Context) ([]models.QuizPack, error) {
	if m.ListPacksError != nil {
		return nil, m.ListPacksError
	}
	return m.FullRepository.ListPacks(ctx)
}

func (m *Repository) GetPack(ctx context.Context, id int) (*models.QuizPack, error) {
	if m.GetPackError != nil {
		return nil, m.GetPackError
	}
	return m.FullRepository.GetPack(ctx, id)
}

func (m *Repository) CreatePack(ctx context.Context, name, description string) (int64, error) {
	if m.CreatePackError != nil {
		return 0, m.CreatePackError
	}
	return m.FullRepository.CreatePack(ctx, name, description)
}

func (m *Repository) CountPacks(ctx context.Context) (int, error) {
	if m.CountPacksError != nil {
		return 0, m.CountPacksError
	}
	return m.FullRepository.CountPacks(ctx)
}

func (m *Repository) CreateQuestion(ctx context.Context, packID int, q models.Question) (int64, error) {
	if m.CreateQuestionError != nil {
		return 0, m.CreateQuestionError
	}
	return m.FullRepository.CreateQuestion(ctx, packID, q)
}

// ===== Settings / Blob Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) PutBlob(ctx context.Context, key string, value []byte) error {
	if m.PutBlobError != nil {
		return m.PutBlobError
	}
	return m.FullRepository.PutBlob(ctx, key, value)
}
