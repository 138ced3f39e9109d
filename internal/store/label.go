package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Label binds a gesture label id to its display name.
type Label struct {
	ID        int
	Name      string
	CreatedAt time.Time
}

// LabelRepository provides CRUD operations for labels.
type LabelRepository struct {
	db *sql.DB
}

// Labels returns the label repository for this store.
func (s *Store) Labels() *LabelRepository {
	return &LabelRepository{db: s.db}
}

// Create inserts a new label into the database.
func (r *LabelRepository) Create(l *Label) error {
	l.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO labels (id, name, created_at) VALUES (?, ?, ?)`,
		l.ID, l.Name, l.CreatedAt,
	)
	return err
}

// Upsert inserts a label or renames an existing one with the same id.
func (r *LabelRepository) Upsert(l *Label) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO labels (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		l.ID, l.Name, l.CreatedAt,
	)
	return err
}

// GetByID retrieves a label by its id.
func (r *LabelRepository) GetByID(id int) (*Label, error) {
	l := &Label{}

	err := r.db.QueryRow(
		`SELECT id, name, created_at FROM labels WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return l, nil
}

// GetByName retrieves a label by its name.
func (r *LabelRepository) GetByName(name string) (*Label, error) {
	l := &Label{}

	err := r.db.QueryRow(
		`SELECT id, name, created_at FROM labels WHERE name = ?`,
		name,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return l, nil
}

// List retrieves all labels ordered by id.
func (r *LabelRepository) List() ([]*Label, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM labels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*Label
	for rows.Next() {
		l := &Label{}
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return labels, nil
}

// Update renames an existing label.
func (r *LabelRepository) Update(l *Label) error {
	result, err := r.db.Exec(`UPDATE labels SET name = ? WHERE id = ?`, l.Name, l.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a label by its id. Catalogued recordings are kept.
func (r *LabelRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM labels WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
