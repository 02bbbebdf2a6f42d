package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/PulsaGit/promo_api/internal/config"
	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/internal/repository"
	"github.com/PulsaGit/promo_api/internal/utils"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

// SettingsService resolves per-user SOCX credentials and manages the
// key/value settings behind them.
type SettingsService struct {
	settingRepo *repository.SettingRepository
	socxCfg     *config.SocxConfig
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(settingRepo *repository.SettingRepository, socxCfg *config.SocxConfig) *SettingsService {
	return &SettingsService{settingRepo: settingRepo, socxCfg: socxCfg}
}

// SocxClient builds a catalog client from the user's stored credentials.
// The base URL falls back to the configured default; a missing token is a
// hard error because every SOCX call needs one.
func (s *SettingsService) SocxClient(userID int) (*socx.Client, error) {
	baseURL, err := s.settingRepo.GetValue(userID, models.SettingSocxBaseURL, s.socxCfg.DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	token, err := s.settingRepo.GetValue(userID, models.SettingSocxToken, "")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, utils.ErrSocxTokenMissing
	}

	return socx.NewClient(socx.Config{
		BaseURL: baseURL,
		Token:   token,
		Timeout: s.socxCfg.RequestTimeout,
	}), nil
}

// VerifyToken checks the user's stored SOCX token against the remote API.
func (s *SettingsService) VerifyToken(ctx context.Context, userID int) (json.RawMessage, error) {
	client, err := s.SocxClient(userID)
	if err != nil {
		return nil, err
	}
	raw, err := client.VerifyToken(ctx)
	if err == socx.ErrUnauthorized {
		return nil, utils.ErrSocxTokenInvalid
	}
	return raw, err
}

// GetAll returns every setting a user has stored, with the token value
// masked so it never leaks through the dashboard.
func (s *SettingsService) GetAll(userID int) ([]models.Setting, error) {
	settings, err := s.settingRepo.GetAll(userID)
	if err != nil {
		return nil, err
	}
	for i := range settings {
		if settings[i].Key == models.SettingSocxToken {
			settings[i].Value = maskToken(settings[i].Value)
		}
	}
	return settings, nil
}

// Get returns one setting, masking the token value.
func (s *SettingsService) Get(userID int, key string) (*models.Setting, error) {
	setting, err := s.settingRepo.GetByKey(userID, key)
	if err != nil {
		return nil, err
	}
	if setting.Key == models.SettingSocxToken {
		setting.Value = maskToken(setting.Value)
	}
	return setting, nil
}

// Set upserts a setting for a user.
func (s *SettingsService) Set(userID int, key, value string) (*models.Setting, error) {
	setting, err := s.settingRepo.Set(userID, key, strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	if setting.Key == models.SettingSocxToken {
		setting.Value = maskToken(setting.Value)
	}
	return setting, nil
}

// Delete removes a setting; sql.ErrNoRows when it did not exist.
func (s *SettingsService) Delete(userID int, key string) error {
	err := s.settingRepo.Delete(userID, key)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	return err
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
