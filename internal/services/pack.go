package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/abrezinsky/quizattack/internal/errors"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/repository"
)

// DefaultPackName is the pack seeded on first run
const DefaultPackName = "General Knowledge"

// PackService manages quiz packs and their questions
type PackService struct {
	log  logger.Logger
	repo repository.PackRepository
}

// NewPackService creates a new PackService
func NewPackService(log logger.Logger, repo repository.PackRepository) *PackService {
	return &PackService{log: log, repo: repo}
}

// ListPacks returns all packs with their question counts
func (s *PackService) ListPacks(ctx context.Context) ([]models.QuizPack, error) {
	return s.repo.ListPacks(ctx)
}

// GetPack returns a pack together with its questions
func (s *PackService) GetPack(ctx context.Context, id int) (*models.QuizPack, error) {
	pack, err := s.repo.GetPack(ctx, id)
	if err != nil {
		return nil, packError(err)
	}
	return pack, nil
}

// CreatePack creates an empty pack
func (s *PackService) CreatePack(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.Validation("pack name is required")
	}
	id, err := s.repo.CreatePack(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return 0, err
	}
	s.log.Info("Quiz pack created", "pack_id", id, "name", name)
	return id, nil
}

// UpdatePack renames a pack
func (s *PackService) UpdatePack(ctx context.Context, id int, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.Validation("pack name is required")
	}
	return packError(s.repo.UpdatePack(ctx, id, name, strings.TrimSpace(description)))
}

// DeletePack removes a pack and its questions
func (s *PackService) DeletePack(ctx context.Context, id int) error {
	if err := s.repo.DeletePack(ctx, id); err != nil {
		return packError(err)
	}
	s.log.Info("Quiz pack deleted", "pack_id", id)
	return nil
}

// AddQuestion validates q and appends it to a pack
func (s *PackService) AddQuestion(ctx context.Context, packID int, q models.Question) (int64, error) {
	if err := gameconfig.ValidateQuestion(q); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateQuestion(ctx, packID, q)
	if err != nil {
		return 0, packError(err)
	}
	return id, nil
}

// UpdateQuestion validates q and replaces the stored question
func (s *PackService) UpdateQuestion(ctx context.Context, packID, id int, q models.Question) error {
	if err := gameconfig.ValidateQuestion(q); err != nil {
		return err
	}
	if err := s.repo.UpdateQuestion(ctx, packID, id, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("question not found")
		}
		return err
	}
	return nil
}

// DeleteQuestion removes a question from a pack
func (s *PackService) DeleteQuestion(ctx context.Context, packID, id int) error {
	if err := s.repo.DeleteQuestion(ctx, packID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("question not found")
		}
		return err
	}
	return nil
}

// DefaultPackID returns the id of the first pack
func (s *PackService) DefaultPackID(ctx context.Context) (int, error) {
	packs, err := s.repo.ListPacks(ctx)
	if err != nil {
		return 0, err
	}
	if len(packs) == 0 {
		return 0, ErrPackNotFound
	}
	return packs[0].ID, nil
}

// SeedDefaultPack creates the built-in pack when no packs exist yet.
// Returns the number of questions inserted.
func (s *PackService) SeedDefaultPack(ctx context.Context) (int, error) {
	count, err := s.repo.CountPacks(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	packID, err := s.repo.CreatePack(ctx, DefaultPackName, "A little bit of everything")
	if err != nil {
		return 0, err
	}
	for i, q := range defaultQuestions {
		if _, err := s.repo.CreateQuestion(ctx, int(packID), q); err != nil {
			return i, err
		}
	}
	s.log.Info("Seeded default quiz pack", "pack_id", packID, "questions", len(defaultQuestions))
	return len(defaultQuestions), nil
}

func packError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPackNotFound
	}
	return err
}

var defaultQuestions = []models.Question{
	{Text: "2+2?", Options: []string{"3", "4", "5", "22"}, CorrectAnswer: 1, Explanation: "Two plus two is four."},
	{Text: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Jupiter", "Mars", "Mercury"}, CorrectAnswer: 2, Explanation: "Iron oxide dust gives Mars its colour."},
	{Text: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectAnswer: 2},
	{Text: "What is the chemical symbol for gold?", Options: []string{"Go", "Au", "Ag", "Gd"}, CorrectAnswer: 1, Explanation: "Au comes from the Latin aurum."},
	{Text: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectAnswer: 3},
	{Text: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, CorrectAnswer: 1},
	{Text: "Who painted the Mona Lisa?", Options: []string{"Leonardo da Vinci", "Michelangelo", "Raphael", "Donatello"}, CorrectAnswer: 0},
	{Text: "What is the boiling point of water at sea level in Celsius?", Options: []string{"90", "100", "110", "120"}, CorrectAnswer: 1},
	{Text: "Which gas do plants absorb from the air?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, CorrectAnswer: 2},
	{Text: "What is the smallest prime number?", Options: []string{"0", "1", "2", "3"}, CorrectAnswer: 2, Explanation: "1 is not prime; 2 is the only even prime."},
}
