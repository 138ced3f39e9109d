package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Recording is one catalogued export.
type Recording struct {
	ID         string    `json:"id"`
	LabelID    int       `json:"label_id"`
	Operator   string    `json:"operator"`
	Mode       string    `json:"mode"`
	Path       string    `json:"path"`
	Frames     int       `json:"frames"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordingRepository provides access to the recordings catalog.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

// Create inserts a recording. A missing ID is filled with a new UUID and a
// zero CreatedAt with the current time.
func (r *RecordingRepository) Create(rec *Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO recordings (id, label_id, operator, mode, path, frames, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.LabelID, rec.Operator, rec.Mode, rec.Path, rec.Frames, rec.DurationMS, rec.CreatedAt,
	)
	return err
}

const recordingColumns = `id, label_id, operator, mode, path, frames, duration_ms, created_at`

func scanRecording(s interface{ Scan(...any) error }) (*Recording, error) {
	rec := &Recording{}
	err := s.Scan(&rec.ID, &rec.LabelID, &rec.Operator, &rec.Mode, &rec.Path,
		&rec.Frames, &rec.DurationMS, &rec.CreatedAt)
	return rec, err
}

// GetByID retrieves a recording by its id.
func (r *RecordingRepository) GetByID(id string) (*Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(
		`SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	return r.query(`SELECT ` + recordingColumns + ` FROM recordings ORDER BY created_at DESC`)
}

// ListByLabel retrieves the recordings of one label, newest first.
func (r *RecordingRepository) ListByLabel(labelID int) ([]*Recording, error) {
	return r.query(
		`SELECT `+recordingColumns+` FROM recordings WHERE label_id = ? ORDER BY created_at DESC`,
		labelID,
	)
}

func (r *RecordingRepository) query(q string, args ...any) ([]*Recording, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// CountByLabel returns the number of catalogued recordings per label id.
func (r *RecordingRepository) CountByLabel() (map[int]int, error) {
	rows, err := r.db.Query(`SELECT label_id, COUNT(*) FROM recordings GROUP BY label_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}

	return counts, rows.Err()
}

// Delete removes a recording from the catalog. Files on disk are untouched.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
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
