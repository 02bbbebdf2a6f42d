package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/PulsaGit/promo_api/internal/models"
)

// ProjectRepository handles data access for projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetAll returns active projects ordered by name.
func (r *ProjectRepository) GetAll() ([]models.Project, error) {
	const q = `SELECT * FROM projects WHERE status = 'active' ORDER BY name ASC`
	var projects []models.Project
	if err := r.db.Select(&projects, q); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetByID returns a single project by id.
func (r *ProjectRepository) GetByID(id int) (*models.Project, error) {
	const q = `SELECT * FROM projects WHERE id = $1 LIMIT 1`
	var p models.Project
	if err := r.db.Get(&p, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// GetByCode returns the first project with the given provider code.
func (r *ProjectRepository) GetByCode(code models.ProviderCode) (*models.Project, error) {
	const q = `SELECT * FROM projects WHERE code = $1 ORDER BY name ASC LIMIT 1`
	var p models.Project
	if err := r.db.Get(&p, q, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project.
func (r *ProjectRepository) Create(p *models.Project) error {
	const q = `INSERT INTO projects (name, code, description, status)
               VALUES ($1, $2, $3, 'active')
               RETURNING id, status, created_at, updated_at`
	return r.db.QueryRowx(q, p.Name, p.Code, p.Description).
		Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

// Update updates name, code and description of a project.
func (r *ProjectRepository) Update(p *models.Project) error {
	const q = `UPDATE projects SET name = $1, code = $2, description = $3, updated_at = NOW()
               WHERE id = $4 RETURNING updated_at`
	return r.db.QueryRowx(q, p.Name, p.Code, p.Description, p.ID).Scan(&p.UpdatedAt)
}

// DeleteWithRelated deletes a project together with its numbers and their
// promo offers, in one transaction (offers -> numbers -> project).
func (r *ProjectRepository) DeleteWithRelated(id int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM promo_offers WHERE phone_number_id IN
        (SELECT id FROM phone_numbers WHERE project_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM phone_numbers WHERE project_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
