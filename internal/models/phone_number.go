package models

import "time"

// NumberStatus enumerates the lifecycle of a resale number within a project.
type NumberStatus string

const (
	NumberStatusPending   NumberStatus = "pending"
	NumberStatusProcessed NumberStatus = "processed"
	NumberStatusFailed    NumberStatus = "failed"
)

// PhoneNumber represents a resale number owned by a project. Status,
// packet_count and last_checked_at are mutated only by the promo-check worker.
type PhoneNumber struct {
	ID            int          `db:"id" json:"id"`
	ProjectID     int          `db:"project_id" json:"projectId"`
	Msisdn        string       `db:"msisdn" json:"msisdn"`
	Name          *string      `db:"name" json:"name,omitempty"`
	Status        NumberStatus `db:"status" json:"status"`
	PacketCount   int          `db:"packet_count" json:"packetCount"`
	LastCheckedAt *time.Time   `db:"last_checked_at" json:"lastCheckedAt,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"-"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`

	// Populated by the repository when listing with offers.
	Offers []PromoOffer `db:"-" json:"offers,omitempty"`
}

// PhoneListEntry is a row of the raw import list that feeds batch runs.
// Entries are synced into phone_numbers when a run starts.
type PhoneListEntry struct {
	ID          int       `db:"id" json:"id"`
	Provider    string    `db:"provider" json:"provider"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}
