package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/PulsaGit/promo_api/internal/models"
)

// PhoneListRepository handles the raw import list that feeds batch runs.
type PhoneListRepository struct {
	db *sqlx.DB
}

// NewPhoneListRepository creates a new PhoneListRepository.
func NewPhoneListRepository(db *sqlx.DB) *PhoneListRepository {
	return &PhoneListRepository{db: db}
}

// GetNumbers returns the provider's import list in insertion order.
func (r *PhoneListRepository) GetNumbers(provider models.ProviderCode) ([]string, error) {
	const q = `SELECT phone_number FROM phone_lists WHERE provider = $1 ORDER BY id ASC`
	var numbers []string
	if err := r.db.Select(&numbers, q, provider); err != nil {
		return nil, err
	}
	return numbers, nil
}

// Add bulk-inserts numbers into the provider's list, skipping duplicates.
// Returns the count of newly inserted rows.
func (r *PhoneListRepository) Add(provider models.ProviderCode, numbers []string) (int64, error) {
	cleaned := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return 0, nil
	}

	const q = `INSERT INTO phone_lists (provider, phone_number)
               SELECT $1, unnest($2::text[])
               ON CONFLICT (provider, phone_number) DO NOTHING`
	res, err := r.db.Exec(q, provider, pq.Array(cleaned))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the size of the provider's list.
func (r *PhoneListRepository) Count(provider models.ProviderCode) (int, error) {
	const q = `SELECT COUNT(*) FROM phone_lists WHERE provider = $1`
	var count int
	if err := r.db.Get(&count, q, provider); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes one number from the provider's list.
func (r *PhoneListRepository) Delete(provider models.ProviderCode, number string) error {
	const q = `DELETE FROM phone_lists WHERE provider = $1 AND phone_number = $2`
	_, err := r.db.Exec(q, provider, number)
	return err
}

// Clear empties the provider's list.
func (r *PhoneListRepository) Clear(provider models.ProviderCode) (int64, error) {
	const q = `DELETE FROM phone_lists WHERE provider = $1`
	res, err := r.db.Exec(q, provider)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
