package services_test

import (
	"testing"

	apperrors "github.com/abrezinsky/quizattack/internal/errors"
	"github.com/abrezinsky/quizattack/internal/services"
)

func TestPredefinedErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperrors.Kind
	}{
		{"ErrNicknameRequired", services.ErrNicknameRequired, apperrors.ErrValidation},
		{"ErrNicknameTaken", services.ErrNicknameTaken, apperrors.ErrConflict},
		{"ErrRoomFull", services.ErrRoomFull, apperrors.ErrConflict},
		{"ErrWrongPassword", services.ErrWrongPassword, apperrors.ErrForbidden},
		{"ErrNotHost", services.ErrNotHost, apperrors.ErrForbidden},
		{"ErrRoomNotFound", services.ErrRoomNotFound, apperrors.ErrNotFound},
		{"ErrPackNotFound", services.ErrPackNotFound, apperrors.ErrNotFound},
		{"ErrGameRunning", services.ErrGameRunning, apperrors.ErrConflict},
		{"ErrNoGame", services.ErrNoGame, apperrors.ErrNotFound},
		{"ErrInvalidBaseURL", services.ErrInvalidBaseURL, apperrors.ErrValidation},
		{"ErrPackHasNoQuestion", services.ErrPackHasNoQuestion, apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperrors.KindOf(tt.err); got != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, got)
			}
			if tt.err.Error() == "" {
				t.Error("expected a message")
			}
		})
	}
}
