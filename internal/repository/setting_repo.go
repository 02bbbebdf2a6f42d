package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/PulsaGit/promo_api/internal/models"
)

// SettingRepository handles per-user key/value settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetByKey returns one setting value, or sql.ErrNoRows when unset.
func (r *SettingRepository) GetByKey(userID int, key string) (*models.Setting, error) {
	const q = `SELECT id, user_id, setting_key, setting_value, created_at, updated_at
               FROM settings WHERE user_id = $1 AND setting_key = $2`
	var s models.Setting
	err := r.db.Get(&s, q, userID, key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetValue returns a setting value with a fallback for unset keys.
func (r *SettingRepository) GetValue(userID int, key, fallback string) (string, error) {
	s, err := r.GetByKey(userID, key)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// Set upserts a setting for a user.
func (r *SettingRepository) Set(userID int, key, value string) (*models.Setting, error) {
	const q = `INSERT INTO settings (user_id, setting_key, setting_value, created_at, updated_at)
               VALUES ($1, $2, $3, NOW(), NOW())
               ON CONFLICT (user_id, setting_key) DO UPDATE SET
                   setting_value = EXCLUDED.setting_value,
                   updated_at = NOW()
               RETURNING id, user_id, setting_key, setting_value, created_at, updated_at`
	var s models.Setting
	if err := r.db.QueryRowx(q, userID, key, value).StructScan(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetAll returns every setting a user has stored.
func (r *SettingRepository) GetAll(userID int) ([]models.Setting, error) {
	const q = `SELECT id, user_id, setting_key, setting_value, created_at, updated_at
               FROM settings WHERE user_id = $1 ORDER BY setting_key ASC`
	var settings []models.Setting
	if err := r.db.Select(&settings, q, userID); err != nil {
		return nil, err
	}
	return settings, nil
}

// Delete removes a setting.
func (r *SettingRepository) Delete(userID int, key string) error {
	const q = `DELETE FROM settings WHERE user_id = $1 AND setting_key = $2`
	res, err := r.db.Exec(q, userID, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
