package models

import (
	"encoding/json"
	"time"
)

// PromoOffer is one promo row returned by the remote catalog for a number.
// The full set for a number is replaced on every successful check; it is a
// snapshot, not an append log. is_selected survives re-checks so the user's
// picks are kept.
type PromoOffer struct {
	ID            int             `db:"id" json:"id"`
	PhoneNumberID int             `db:"phone_number_id" json:"phoneNumberId"`
	ProductCode   string          `db:"product_code" json:"productCode"`
	ProductName   string          `db:"product_name" json:"productName"`
	Amount        int             `db:"amount" json:"amount"`
	NetAmount     *int            `db:"net_amount" json:"netAmount,omitempty"`
	ProductType   string          `db:"product_type" json:"productType"`
	TypeTitle     string          `db:"type_title" json:"typeTitle"`
	Commission    int             `db:"commission" json:"commission"`
	GbQuota       float64         `db:"gb_quota" json:"gbQuota"`
	DayValidity   int             `db:"day_validity" json:"dayValidity"`
	IsSelected    bool            `db:"is_selected" json:"isSelected"`
	RawPayload    json.RawMessage `db:"raw_payload" json:"rawPayload,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"-"`
}
