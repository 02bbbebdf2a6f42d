package models

import "time"

// ProviderCode enumerates the supported resale providers.
type ProviderCode string

const (
	ProviderIsimple ProviderCode = "isimple"
	ProviderTri     ProviderCode = "tri"
)

// Project groups a set of resale numbers for one provider.
type Project struct {
	ID          int          `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Code        ProviderCode `db:"code" json:"code"`
	Description string       `db:"description" json:"description"`
	Status      string       `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"-"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}
