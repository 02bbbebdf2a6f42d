package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/PulsaGit/promo_api/internal/models"
)

// PromoOfferRepository handles promo offer persistence.
type PromoOfferRepository struct {
	db *sqlx.DB
}

// NewPromoOfferRepository creates a new PromoOfferRepository.
func NewPromoOfferRepository(db *sqlx.DB) *PromoOfferRepository {
	return &PromoOfferRepository{db: db}
}

// GetByNumberID returns all offers attached to a phone number, cheapest first.
func (r *PromoOfferRepository) GetByNumberID(numberID int) ([]models.PromoOffer, error) {
	const q = `SELECT * FROM promo_offers
               WHERE phone_number_id = $1
               ORDER BY amount ASC, id ASC`
	var offers []models.PromoOffer
	if err := r.db.Select(&offers, q, numberID); err != nil {
		return nil, err
	}
	return offers, nil
}

// ReplaceForNumber reconciles a number's stored offers with a fresh lookup
// result. Offers whose product code no longer appears are deleted; the rest
// are upserted in place so a manually set is_selected flag survives re-checks.
func (r *PromoOfferRepository) ReplaceForNumber(numberID int, offers []models.PromoOffer) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	codes := make([]string, 0, len(offers))
	for _, o := range offers {
		codes = append(codes, o.ProductCode)
	}

	if len(codes) == 0 {
		if _, err := tx.Exec(`DELETE FROM promo_offers WHERE phone_number_id = $1`, numberID); err != nil {
			return err
		}
		return tx.Commit()
	}

	const del = `DELETE FROM promo_offers
                 WHERE phone_number_id = $1 AND NOT (product_code = ANY($2))`
	if _, err := tx.Exec(del, numberID, pq.Array(codes)); err != nil {
		return err
	}

	const upsert = `INSERT INTO promo_offers
                        (phone_number_id, product_code, product_name, amount, net_amount,
                         product_type, type_title, commission, gb_quota, day_validity, raw_payload)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                    ON CONFLICT (phone_number_id, product_code) DO UPDATE SET
                        product_name = EXCLUDED.product_name,
                        amount       = EXCLUDED.amount,
                        net_amount   = EXCLUDED.net_amount,
                        product_type = EXCLUDED.product_type,
                        type_title   = EXCLUDED.type_title,
                        commission   = EXCLUDED.commission,
                        gb_quota     = EXCLUDED.gb_quota,
                        day_validity = EXCLUDED.day_validity,
                        raw_payload  = EXCLUDED.raw_payload`
	for _, o := range offers {
		if _, err := tx.Exec(upsert, numberID, o.ProductCode, o.ProductName, o.Amount,
			o.NetAmount, o.ProductType, o.TypeTitle, o.Commission, o.GbQuota,
			o.DayValidity, o.RawPayload); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteByNumberID removes all offers for a phone number.
func (r *PromoOfferRepository) DeleteByNumberID(numberID int) error {
	const q = `DELETE FROM promo_offers WHERE phone_number_id = $1`
	_, err := r.db.Exec(q, numberID)
	return err
}

// UpdateSelected toggles the picked flag on one offer.
func (r *PromoOfferRepository) UpdateSelected(id int, selected bool) (*models.PromoOffer, error) {
	const q = `UPDATE promo_offers SET is_selected = $2 WHERE id = $1 RETURNING *`
	var offer models.PromoOffer
	if err := r.db.QueryRowx(q, id, selected).StructScan(&offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// ProductCodeCount is one row of the per-project promo distribution.
type ProductCodeCount struct {
	ProductCode string `db:"product_code" json:"productCode"`
	ProductName string `db:"product_name" json:"productName"`
	Amount      int    `db:"amount" json:"amount"`
	NumberCount int    `db:"number_count" json:"numberCount"`
}

// CountsByProductCode aggregates how many numbers in a project currently
// carry each promo, cheapest promo first.
func (r *PromoOfferRepository) CountsByProductCode(projectID int) ([]ProductCodeCount, error) {
	const q = `SELECT po.product_code,
                      MAX(po.product_name) AS product_name,
                      MIN(po.amount) AS amount,
                      COUNT(DISTINCT po.phone_number_id) AS number_count
               FROM promo_offers po
               JOIN phone_numbers pn ON pn.id = po.phone_number_id
               WHERE pn.project_id = $1
               GROUP BY po.product_code
               ORDER BY MIN(po.amount) ASC, po.product_code ASC`
	var rows []ProductCodeCount
	if err := r.db.Select(&rows, q, projectID); err != nil {
		return nil, err
	}
	return rows, nil
}

// LastCheckedAt returns the most recent check timestamp across a project.
func (r *PromoOfferRepository) LastCheckedAt(projectID int) (*time.Time, error) {
	const q = `SELECT MAX(last_checked_at) FROM phone_numbers WHERE project_id = $1`
	var ts sql.NullTime
	if err := r.db.Get(&ts, q, projectID); err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}
