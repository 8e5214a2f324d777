package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Interactables - objects a hand can point at, activate and throw
		`CREATE TABLE IF NOT EXISTS interactables (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			plugin_name TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL DEFAULT '{}',
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			z REAL NOT NULL DEFAULT 0,
			radius REAL NOT NULL DEFAULT 0.1 CHECK(radius > 0),
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Finger profiles - calibrated curl thresholds, one row per user
		`CREATE TABLE IF NOT EXISTS finger_profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			thresholds TEXT NOT NULL,
			palm_open_threshold REAL NOT NULL DEFAULT 1.0,
			samples INTEGER NOT NULL DEFAULT 0,
			trained INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Calibration samples - raw curl recordings used to train a profile
		`CREATE TABLE IF NOT EXISTS calibration_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id TEXT NOT NULL REFERENCES finger_profiles(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_calibration_samples_profile_id ON calibration_samples(profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactables_plugin_name ON interactables(plugin_name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
