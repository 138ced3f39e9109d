package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Labels table - gesture label ids and their display names
		`CREATE TABLE IF NOT EXISTS labels (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recordings table - catalog of persisted dataset exports
		`CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			label_id INTEGER NOT NULL,
			operator TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL CHECK(mode IN ('predict', 'output')),
			path TEXT NOT NULL,
			frames INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_recordings_label_id ON recordings(label_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
