package services

import (
	"context"
	"errors"
	"strings"

	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/repository"
)

const settingBaseURL = "base_url"

// SettingsService handles runtime settings stored in the database
type SettingsService struct {
	log            logger.Logger
	repo           repository.SettingsRepository
	defaultBaseURL string
}

// NewSettingsService creates a new SettingsService. defaultBaseURL is returned
// by GetBaseURL until one is saved.
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository, defaultBaseURL string) *SettingsService {
	return &SettingsService{log: log, repo: repo, defaultBaseURL: strings.TrimRight(defaultBaseURL, "/")}
}

// GetBaseURL returns the public base URL used in share links
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, settingBaseURL)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && value == "") {
		return s.defaultBaseURL, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetBaseURL saves the public base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ErrInvalidBaseURL
	}
	url = strings.TrimRight(url, "/")
	if err := s.repo.SetSetting(ctx, settingBaseURL, url); err != nil {
		return err
	}
	s.log.Info("Base URL updated", "url", url)
	return nil
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// AllSettings returns the settings shown on the home page
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		settingBaseURL: baseURL,
	}, nil
}
