package services_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/abrezinsky/quizattack/internal/errors"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/repository/mock"
	"github.com/abrezinsky/quizattack/internal/services"
	"github.com/abrezinsky/quizattack/internal/testutil"
)

func TestPackService_SeedDefaultPack(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewPackService(logger.Discard(), repo)
	ctx := context.Background()

	n, err := svc.SeedDefaultPack(ctx)
	if err != nil {
		t.Fatalf("SeedDefaultPack failed: %v", err)
	}
	if n == 0 {
		t.Fatal("expected questions to be seeded")
	}

	// Second call is a no-op
	again, err := svc.SeedDefaultPack(ctx)
	if err != nil {
		t.Fatalf("second SeedDefaultPack failed: %v", err)
	}
	if again != 0 {
		t.Errorf("expected no questions on second seed, got %d", again)
	}

	packs, err := svc.ListPacks(ctx)
	if err != nil {
		t.Fatalf("ListPacks failed: %v", err)
	}
	if len(packs) != 1 || packs[0].Name != services.DefaultPackName || packs[0].QuestionCount != n {
		t.Errorf("unexpected packs: %+v", packs)
	}

	id, err := svc.DefaultPackID(ctx)
	if err != nil {
		t.Fatalf("DefaultPackID failed: %v", err)
	}
	if id != packs[0].ID {
		t.Errorf("expected default pack %d, got %d", packs[0].ID, id)
	}

	pack, err := svc.GetPack(ctx, id)
	if err != nil {
		t.Fatalf("GetPack failed: %v", err)
	}
	if pack.Questions[0].Text != "2+2?" || pack.Questions[0].CorrectAnswer != 1 {
		t.Errorf("expected the 2+2 question first, got %+v", pack.Questions[0])
	}
}

func TestPackService_DefaultPackID_NoPacks(t *testing.T) {
	svc := services.NewPackService(logger.Discard(), testutil.NewTestRepository(t))

	if _, err := svc.DefaultPackID(context.Background()); err != services.ErrPackNotFound {
		t.Errorf("expected ErrPackNotFound, got %v", err)
	}
}

func TestPackService_CRUD(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewPackService(logger.Discard(), repo)
	ctx := context.Background()

	id, err := svc.CreatePack(ctx, "  Space  ", "planets and stars")
	if err != nil {
		t.Fatalf("CreatePack failed: %v", err)
	}
	packID := int(id)

	qid, err := svc.AddQuestion(ctx, packID, models.Question{
		Text:          "Closest star?",
		Options:       []string{"Sirius", "The Sun"},
		CorrectAnswer: 1,
	})
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}

	err = svc.UpdateQuestion(ctx, packID, int(qid), models.Question{
		Text:          "Closest star to Earth?",
		Options:       []string{"Sirius", "The Sun", "Vega"},
		CorrectAnswer: 1,
	})
	if err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}

	if err := svc.UpdatePack(ctx, packID, "Astronomy", ""); err != nil {
		t.Fatalf("UpdatePack failed: %v", err)
	}

	pack, err := svc.GetPack(ctx, packID)
	if err != nil {
		t.Fatalf("GetPack failed: %v", err)
	}
	if pack.Name != "Astronomy" {
		t.Errorf("expected renamed pack, got %q", pack.Name)
	}
	if len(pack.Questions) != 1 || len(pack.Questions[0].Options) != 3 {
		t.Errorf("expected updated question, got %+v", pack.Questions)
	}

	if err := svc.DeleteQuestion(ctx, packID, int(qid)); err != nil {
		t.Fatalf("DeleteQuestion failed: %v", err)
	}
	if err := svc.DeletePack(ctx, packID); err != nil {
		t.Fatalf("DeletePack failed: %v", err)
	}
	if _, err := svc.GetPack(ctx, packID); err != services.ErrPackNotFound {
		t.Errorf("expected ErrPackNotFound after delete, got %v", err)
	}
}

func TestPackService_Validation(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewPackService(logger.Discard(), repo)
	ctx := context.Background()

	if _, err := svc.CreatePack(ctx, "   ", ""); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error for blank name, got %v", err)
	}

	id, _ := svc.CreatePack(ctx, "Pack", "")
	bad := []models.Question{
		{Text: "", Options: []string{"a", "b"}},
		{Text: "one option", Options: []string{"a"}},
		{Text: "out of range", Options: []string{"a", "b"}, CorrectAnswer: 2},
		{Text: "negative", Options: []string{"a", "b"}, CorrectAnswer: -1},
	}
	for _, q := range bad {
		if _, err := svc.AddQuestion(ctx, int(id), q); !apperrors.Is(err, apperrors.ErrValidation) {
			t.Errorf("AddQuestion(%q): expected validation error, got %v", q.Text, err)
		}
	}
}

func TestPackService_NotFound(t *testing.T) {
	svc := services.NewPackService(logger.Discard(), testutil.NewTestRepository(t))
	ctx := context.Background()
	q := models.Question{Text: "q", Options: []string{"a", "b"}}

	if err := svc.UpdatePack(ctx, 999, "x", ""); err != services.ErrPackNotFound {
		t.Errorf("UpdatePack: expected ErrPackNotFound, got %v", err)
	}
	if err := svc.DeletePack(ctx, 999); err != services.ErrPackNotFound {
		t.Errorf("DeletePack: expected ErrPackNotFound, got %v", err)
	}
	if _, err := svc.AddQuestion(ctx, 999, q); err != services.ErrPackNotFound {
		t.Errorf("AddQuestion: expected ErrPackNotFound, got %v", err)
	}
	if err := svc.UpdateQuestion(ctx, 999, 1, q); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("UpdateQuestion: expected not found, got %v", err)
	}
	if err := svc.DeleteQuestion(ctx, 999, 1); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("DeleteQuestion: expected not found, got %v", err)
	}
}

func TestPackService_SeedDatabaseErrors(t *testing.T) {
	realRepo := testutil.NewTestRepository(t)
	mockRepo := mock.NewRepository(realRepo)
	svc := services.NewPackService(logger.Discard(), mockRepo)
	ctx := context.Background()

	dbErr := errors.New("database error")

	mockRepo.CountPacksError = dbErr
	if _, err := svc.SeedDefaultPack(ctx); err != dbErr {
		t.Errorf("expected CountPacks error, got %v", err)
	}
	mockRepo.CountPacksError = nil

	mockRepo.CreateQuestionError = dbErr
	n, err := svc.SeedDefaultPack(ctx)
	if err != dbErr {
		t.Errorf("expected CreateQuestion error, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 questions inserted, got %d", n)
	}

	mockRepo.ListPacksError = dbErr
	if _, err := svc.DefaultPackID(ctx); err != dbErr {
		t.Errorf("expected ListPacks error, got %v", err)
	}
}
