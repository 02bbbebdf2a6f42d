package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/PulsaGit/promo_api/internal/models"
)

// PhoneNumberRepository handles data access for phone_numbers.
type PhoneNumberRepository struct {
	db *sqlx.DB
}

// NewPhoneNumberRepository creates a new PhoneNumberRepository.
func NewPhoneNumberRepository(db *sqlx.DB) *PhoneNumberRepository {
	return &PhoneNumberRepository{db: db}
}

// GetByProjectOrdered returns all numbers of a project in stable id order.
// The batch engine depends on this ordering for deterministic progress.
func (r *PhoneNumberRepository) GetByProjectOrdered(projectID int) ([]models.PhoneNumber, error) {
	const q = `SELECT * FROM phone_numbers WHERE project_id = $1 ORDER BY id ASC`
	var numbers []models.PhoneNumber
	if err := r.db.Select(&numbers, q, projectID); err != nil {
		return nil, err
	}
	return numbers, nil
}

// GetByID returns a single number by id.
func (r *PhoneNumberRepository) GetByID(id int) (*models.PhoneNumber, error) {
	const q = `SELECT * FROM phone_numbers WHERE id = $1 LIMIT 1`
	var n models.PhoneNumber
	if err := r.db.Get(&n, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &n, nil
}

// Create inserts a new number in pending state.
func (r *PhoneNumberRepository) Create(n *models.PhoneNumber) error {
	const q = `INSERT INTO phone_numbers (project_id, msisdn, name, status)
               VALUES ($1, $2, $3, 'pending')
               RETURNING id, status, packet_count, created_at, updated_at`
	return r.db.QueryRowx(q, n.ProjectID, n.Msisdn, n.Name).
		Scan(&n.ID, &n.Status, &n.PacketCount, &n.CreatedAt, &n.UpdatedAt)
}

// SyncFromPhoneList bulk-inserts any msisdn from the import list that the
// project does not have yet, then returns the project's rows for those
// msisdns in input order. One pass of set arithmetic instead of a
// get-or-create per row; with tens of thousands of numbers the per-row
// variant is far too slow.
func (r *PhoneNumberRepository) SyncFromPhoneList(projectID int, msisdns []string) ([]models.PhoneNumber, error) {
	normalized := make([]string, 0, len(msisdns))
	for _, m := range msisdns {
		if m = strings.TrimSpace(m); m != "" {
			normalized = append(normalized, m)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	var existing []string
	if err := r.db.Select(&existing, `SELECT msisdn FROM phone_numbers WHERE project_id = $1`, projectID); err != nil {
		return nil, err
	}
	existingSet := make(map[string]bool, len(existing))
	for _, m := range existing {
		existingSet[strings.TrimSpace(m)] = true
	}

	var toInsert []string
	for _, m := range normalized {
		if !existingSet[m] {
			toInsert = append(toInsert, m)
		}
	}

	const batchSize = 1000
	for start := 0; start < len(toInsert); start += batchSize {
		end := start + batchSize
		if end > len(toInsert) {
			end = len(toInsert)
		}
		const q = `INSERT INTO phone_numbers (project_id, msisdn, status)
                   SELECT $1, unnest($2::text[]), 'pending'
                   ON CONFLICT (project_id, msisdn) DO NOTHING`
		if _, err := r.db.Exec(q, projectID, pq.Array(toInsert[start:end])); err != nil {
			return nil, err
		}
	}

	var all []models.PhoneNumber
	if err := r.db.Select(&all, `SELECT * FROM phone_numbers WHERE project_id = $1 ORDER BY id ASC`, projectID); err != nil {
		return nil, err
	}
	byMsisdn := make(map[string]models.PhoneNumber, len(all))
	for _, n := range all {
		byMsisdn[strings.TrimSpace(n.Msisdn)] = n
	}

	result := make([]models.PhoneNumber, 0, len(normalized))
	for _, m := range normalized {
		if n, ok := byMsisdn[m]; ok {
			result = append(result, n)
		}
	}
	return result, nil
}

// UpdateStatus sets the check outcome of a number.
func (r *PhoneNumberRepository) UpdateStatus(id int, status models.NumberStatus, packetCount int, checkedAt time.Time) error {
	const q = `UPDATE phone_numbers
               SET status = $2, packet_count = $3, last_checked_at = $4, updated_at = NOW()
               WHERE id = $1`
	_, err := r.db.Exec(q, id, status, packetCount, checkedAt)
	return err
}

// Update updates mutable fields of a number.
func (r *PhoneNumberRepository) Update(n *models.PhoneNumber) error {
	const q = `UPDATE phone_numbers
               SET msisdn = $1, name = $2, status = $3, packet_count = $4, updated_at = NOW()
               WHERE id = $5 RETURNING updated_at`
	return r.db.QueryRowx(q, n.Msisdn, n.Name, n.Status, n.PacketCount, n.ID).Scan(&n.UpdatedAt)
}

// Delete deletes a number and its offers.
func (r *PhoneNumberRepository) Delete(id int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM promo_offers WHERE phone_number_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM phone_numbers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ClearProcessed removes all processed/failed numbers of a project.
func (r *PhoneNumberRepository) ClearProcessed(projectID int) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM promo_offers WHERE phone_number_id IN
        (SELECT id FROM phone_numbers WHERE project_id = $1 AND status IN ('processed', 'failed'))`, projectID); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM phone_numbers WHERE project_id = $1 AND status IN ('processed', 'failed')`, projectID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// GetByProjectWithOffers returns the project's numbers, most recently checked
// first, with their promo offers attached. Offers are fetched in one query
// and grouped in memory to avoid an N+1.
func (r *PhoneNumberRepository) GetByProjectWithOffers(projectID int) ([]models.PhoneNumber, error) {
	const q = `SELECT * FROM phone_numbers WHERE project_id = $1
               ORDER BY COALESCE(last_checked_at, updated_at) DESC, created_at DESC`
	var numbers []models.PhoneNumber
	if err := r.db.Select(&numbers, q, projectID); err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return numbers, nil
	}

	const oq = `SELECT o.* FROM promo_offers o
                INNER JOIN phone_numbers n ON n.id = o.phone_number_id AND n.project_id = $1
                ORDER BY o.phone_number_id, o.id ASC`
	var offers []models.PromoOffer
	if err := r.db.Select(&offers, oq, projectID); err != nil {
		return nil, err
	}

	byNumber := make(map[int][]models.PromoOffer, len(numbers))
	for _, o := range offers {
		byNumber[o.PhoneNumberID] = append(byNumber[o.PhoneNumberID], o)
	}
	for i := range numbers {
		numbers[i].Offers = byNumber[numbers[i].ID]
	}
	return numbers, nil
}
