package models

import "time"

// Setting keys used by the SOCX integration.
const (
	SettingSocxBaseURL = "socx_base_url"
	SettingSocxToken   = "socx_token"
)

// Setting is a per-user key/value configuration row. SOCX credentials
// (base URL + bearer token) live here.
type Setting struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"userId"`
	Key       string    `db:"setting_key" json:"key"`
	Value     string    `db:"setting_value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
