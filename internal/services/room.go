package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/cards"
	apperrors "github.com/abrezinsky/quizattack/internal/errors"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/repository"
)

// Room code alphabet leaves out 0/O, 1/I/L
const (
	roomCodeChars   = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	roomCodeLength  = 6
	roomCodeRetries = 10
)

// Lobby setting bounds
const (
	DefaultGameMode        = "classic"
	DefaultTimePerQuestion = 30
	DefaultQuestionCount   = 10
	DefaultMaxPlayers      = 8

	MinTimePerQuestion = 5
	MaxTimePerQuestion = 300
	MaxQuestionCount   = 100
	MinMaxPlayers      = 2
	MaxMaxPlayers      = 50
)

// Room message types sent to lobby clients
const (
	MsgRoomUpdated = "room_updated"
	MsgRoomClosed  = "room_closed"
)

// Broadcaster sends a message to every client connected to a room
type Broadcaster interface {
	BroadcastRoom(roomCode, msgType string, payload interface{})
}

// TokenIssuer signs player tokens
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// RoomRepository is the storage a RoomService needs
type RoomRepository interface {
	repository.RoomRepository
	repository.PlayerRepository
	repository.PackRepository
}

// CreateRoomRequest holds the host's lobby form
type CreateRoomRequest struct {
	Nickname string
	Avatar   string
	Password string
	GameMode string
}

// JoinRoomRequest holds a joining player's form
type JoinRoomRequest struct {
	Nickname string
	Avatar   string
	Password string
}

// RoomSettings is a host's settings update
type RoomSettings struct {
	GameMode string
	Settings models.GameSettings
}

// Membership is what a player gets back after creating or joining a room
type Membership struct {
	Room   *models.Room  `json:"room"`
	Player models.Player `json:"player"`
	Token  string        `json:"token"`
}

// RoomService handles lobby business logic
type RoomService struct {
	log         logger.Logger
	repo        RoomRepository
	settings    SettingsServicer
	configs     gameconfig.Store
	play        PlayServicer
	catalog     *cards.Catalog
	tokens      TokenIssuer
	broadcaster Broadcaster
	randReader  io.Reader // for testing: defaults to crypto/rand.Reader
	newID       func() string
	now         func() time.Time
}

// NewRoomService creates a new RoomService
func NewRoomService(log logger.Logger, repo RoomRepository, settings SettingsServicer, configs gameconfig.Store, play PlayServicer, catalog *cards.Catalog, tokens TokenIssuer) *RoomService {
	return &RoomService{
		log:        log,
		repo:       repo,
		settings:   settings,
		configs:    configs,
		play:       play,
		catalog:    catalog,
		tokens:     tokens,
		randReader: rand.Reader,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// SetRandReader sets a custom random reader (for testing)
func (s *RoomService) SetRandReader(reader io.Reader) {
	s.randReader = reader
}

// SetBroadcaster sets the broadcaster for lobby updates
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// NormalizeCode upper-cases and trims a room code typed by a player
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom opens a new lobby with the caller as host
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*Membership, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return nil, ErrNicknameRequired
	}

	code, err := s.generateRoomCode(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	settings, err := s.defaultSettings(ctx)
	if err != nil {
		return nil, err
	}

	mode := req.GameMode
	if mode == "" {
		mode = DefaultGameMode
	}

	host := models.Player{
		ID:       s.newID(),
		Nickname: nickname,
		Avatar:   req.Avatar,
		IsHost:   true,
		IsReady:  true,
	}
	room := models.Room{
		Code:         code,
		PasswordHash: hash,
		GameMode:     mode,
		Settings:     settings,
		HostID:       host.ID,
		Status:       models.RoomStatusLobby,
	}
	if err := s.repo.CreateRoom(ctx, room, host); err != nil {
		return nil, err
	}
	s.log.Info("Room created", "room", code, "host", nickname)

	return s.membership(ctx, code, host)
}

func (s *RoomService) generateRoomCode(ctx context.Context) (string, error) {
	buf := make([]byte, roomCodeLength)
	for attempt := 0; attempt < roomCodeRetries; attempt++ {
		if _, err := io.ReadFull(s.randReader, buf); err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}
		code := make([]byte, roomCodeLength)
		for i, b := range buf {
			code[i] = roomCodeChars[int(b)%len(roomCodeChars)]
		}

		exists, err := s.repo.RoomExists(ctx, string(code))
		if err != nil {
			return "", err
		}
		if !exists {
			return string(code), nil
		}
	}
	return "", apperrors.Internalf("failed to generate a unique room code after %d attempts", roomCodeRetries)
}

func (s *RoomService) defaultSettings(ctx context.Context) (models.GameSettings, error) {
	settings := models.GameSettings{
		TimePerQuestion:   DefaultTimePerQuestion,
		NumberOfQuestion:  DefaultQuestionCount,
		AllowedCards:      s.catalog.IDs(),
		ShowCorrectAnswer: true,
		MaxPlayers:        DefaultMaxPlayers,
	}
	packs, err := s.repo.ListPacks(ctx)
	if err != nil {
		return settings, err
	}
	if len(packs) > 0 {
		settings.SelectedQuizPack = strconv.Itoa(packs[0].ID)
	}
	return settings, nil
}

// GetRoom returns a room with its players
func (s *RoomService) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	code = NormalizeCode(code)
	room, err := s.repo.GetRoom(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	room.Players = players
	return room, nil
}

// JoinRoom adds a player to a lobby
func (s *RoomService) JoinRoom(ctx context.Context, code string, req JoinRoomRequest) (*Membership, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return nil, ErrNicknameRequired
	}

	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status == models.RoomStatusPlaying {
		return nil, apperrors.Conflict("the game has already started")
	}
	if !auth.CheckPassword(room.PasswordHash, req.Password) {
		return nil, ErrWrongPassword
	}

	taken, err := s.repo.NicknameTaken(ctx, room.Code, nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNicknameTaken
	}

	count, err := s.repo.CountPlayers(ctx, room.Code)
	if err != nil {
		return nil, err
	}
	if room.Settings.MaxPlayers > 0 && count >= room.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}

	player := models.Player{ID: s.newID(), Nickname: nickname, Avatar: req.Avatar}
	order, err := s.repo.AddPlayer(ctx, room.Code, player)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrNicknameTaken
		}
		return nil, err
	}
	player.JoinOrder = order
	s.log.Info("Player joined", "room", room.Code, "nickname", nickname)

	return s.membership(ctx, room.Code, player)
}

func (s *RoomService) membership(ctx context.Context, code string, player models.Player) (*Membership, error) {
	token, err := s.tokens.Issue(auth.Identity{
		RoomCode: code,
		PlayerID: player.ID,
		Nickname: player.Nickname,
		IsHost:   player.IsHost,
	})
	if err != nil {
		return nil, err
	}
	room, err := s.broadcastRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return &Membership{Room: room, Player: player, Token: token}, nil
}

// SetReady flips a player's ready flag
func (s *RoomService) SetReady(ctx context.Context, code, playerID string, ready bool) error {
	code = NormalizeCode(code)
	if err := s.repo.SetPlayerReady(ctx, code, playerID, ready); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("player not found in this room")
		}
		return err
	}
	_, err := s.broadcastRoom(ctx, code)
	return err
}

// LeaveRoom removes a player. The room closes when the host leaves.
func (s *RoomService) LeaveRoom(ctx context.Context, code, playerID string) error {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return err
	}

	if room.HostID == playerID {
		s.play.Stop(room.Code)
		if err := s.repo.DeleteRoom(ctx, room.Code); err != nil {
			return err
		}
		if err := s.configs.Delete(ctx, gameconfig.Key(room.Code)); err != nil {
			s.log.Warn("Failed to delete game config", "room", room.Code, "error", err)
		}
		s.log.Info("Room closed by host", "room", room.Code)
		s.broadcast(room.Code, MsgRoomClosed, map[string]string{"room_code": room.Code})
		return nil
	}

	if err := s.repo.RemovePlayer(ctx, room.Code, playerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("player not found in this room")
		}
		return err
	}
	_, err = s.broadcastRoom(ctx, room.Code)
	return err
}

// UpdateSettings validates and saves the host's lobby settings
func (s *RoomService) UpdateSettings(ctx context.Context, code, playerID string, update RoomSettings) (*models.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HostID != playerID {
		return nil, ErrNotHost
	}
	if room.Status == models.RoomStatusPlaying {
		return nil, ErrGameRunning
	}

	settings := update.Settings
	if err := s.validateSettings(ctx, &settings, len(room.Players)); err != nil {
		return nil, err
	}
	mode := update.GameMode
	if mode == "" {
		mode = room.GameMode
	}

	if err := s.repo.UpdateRoomSettings(ctx, room.Code, mode, settings); err != nil {
		return nil, err
	}
	return s.broadcastRoom(ctx, room.Code)
}

func (s *RoomService) validateSettings(ctx context.Context, settings *models.GameSettings, players int) error {
	if settings.TimePerQuestion < MinTimePerQuestion || settings.TimePerQuestion > MaxTimePerQuestion {
		return apperrors.Validationf("time per question must be between %d and %d seconds", MinTimePerQuestion, MaxTimePerQuestion)
	}
	if settings.NumberOfQuestion < 1 || settings.NumberOfQuestion > MaxQuestionCount {
		return apperrors.Validationf("number of questions must be between 1 and %d", MaxQuestionCount)
	}
	if settings.MaxPlayers < MinMaxPlayers || settings.MaxPlayers > MaxMaxPlayers {
		return apperrors.Validationf("max players must be between %d and %d", MinMaxPlayers, MaxMaxPlayers)
	}
	if settings.MaxPlayers < players {
		return apperrors.Validationf("max players cannot be below the %d players already in the room", players)
	}
	if unknown := s.catalog.Unknown(settings.AllowedCards); len(unknown) > 0 {
		return apperrors.Validationf("unknown cards: %s", strings.Join(unknown, ", "))
	}
	if settings.AllowedCards == nil {
		settings.AllowedCards = []string{}
	}

	packID, err := strconv.Atoi(settings.SelectedQuizPack)
	if err != nil {
		return apperrors.Validation("select a quiz pack")
	}
	if _, err := s.repo.GetPack(ctx, packID); err != nil {
		return packError(err)
	}
	return nil
}

// ShareLink returns the URL players open to join a room
func (s *RoomService) ShareLink(ctx context.Context, code string) (string, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return "", err
	}
	base, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	return base + "/join/" + room.Code, nil
}

// StartGame writes the game config for a lobby and starts its play session
func (s *RoomService) StartGame(ctx context.Context, code, playerID string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HostID != playerID {
		return nil, ErrNotHost
	}
	if s.play.Running(room.Code) {
		return nil, ErrGameRunning
	}

	cfg, err := s.buildConfig(ctx, room)
	if err != nil {
		return nil, err
	}
	if err := gameconfig.Save(ctx, s.configs, cfg); err != nil {
		return nil, err
	}
	if err := s.repo.SetRoomStatus(ctx, room.Code, models.RoomStatusPlaying); err != nil {
		return nil, err
	}

	if _, err := s.play.Start(ctx, room.Code); err != nil {
		if revertErr := s.repo.SetRoomStatus(ctx, room.Code, models.RoomStatusLobby); revertErr != nil {
			s.log.Error("Failed to revert room status", "room", room.Code, "error", revertErr)
		}
		return nil, err
	}
	s.log.Info("Game started", "room", room.Code, "players", len(room.Players), "questions", len(cfg.Questions))

	return s.broadcastRoom(ctx, room.Code)
}

func (s *RoomService) buildConfig(ctx context.Context, room *models.Room) (models.GameConfig, error) {
	packID, err := strconv.Atoi(room.Settings.SelectedQuizPack)
	if err != nil {
		return models.GameConfig{}, apperrors.Validation("select a quiz pack before starting")
	}
	questions, err := s.repo.ListQuestions(ctx, packID)
	if err != nil {
		return models.GameConfig{}, err
	}
	if len(questions) == 0 {
		return models.GameConfig{}, ErrPackHasNoQuestion
	}
	if n := room.Settings.NumberOfQuestion; n > 0 && n < len(questions) {
		questions = questions[:n]
	}

	settings := room.Settings
	cfg := models.GameConfig{
		RoomCode:         room.Code,
		SelectedGameMode: room.GameMode,
		GameSettings:     &settings,
		Players:          make([]models.ConfigPlayer, 0, len(room.Players)),
		Questions:        make([]models.ConfigQuestion, 0, len(questions)),
	}
	for _, p := range room.Players {
		cfg.Players = append(cfg.Players, models.ConfigPlayer{
			ID:       p.ID,
			Nickname: p.Nickname,
			Avatar:   p.Avatar,
			IsHost:   p.IsHost,
			IsReady:  p.IsReady,
		})
	}
	for _, q := range questions {
		cfg.Questions = append(cfg.Questions, models.ConfigQuestion{
			Question:      q.Text,
			ImageURL:      q.ImageURL,
			Options:       slices.Clone(q.Options),
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return cfg, nil
}

// EndGame stops the play session and returns the room to its lobby
func (s *RoomService) EndGame(ctx context.Context, code, playerID string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HostID != playerID {
		return nil, ErrNotHost
	}

	s.play.Stop(room.Code)
	if err := s.configs.Delete(ctx, gameconfig.Key(room.Code)); err != nil {
		s.log.Warn("Failed to delete game config", "room", room.Code, "error", err)
	}
	if err := s.repo.SetRoomStatus(ctx, room.Code, models.RoomStatusLobby); err != nil {
		return nil, err
	}
	return s.broadcastRoom(ctx, room.Code)
}

// PurgeStaleRooms deletes lobby rooms created more than maxAge ago. Rooms
// with a running game keep their session and stored config.
func (s *RoomService) PurgeStaleRooms(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.DeleteRoomsBefore(ctx, s.now().Add(-maxAge))
}

// broadcastRoom reloads the room and sends it to its lobby clients
func (s *RoomService) broadcastRoom(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	s.broadcast(code, MsgRoomUpdated, room)
	return room, nil
}

func (s *RoomService) broadcast(code, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRoom(code, msgType, payload)
	}
}
