package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Sample represents a recorded calibration sample stored in the database.
type Sample struct {
	ID          int64           `json:"id"`
	ProfileID   string          `json:"profile_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository provides operations for calibration samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Append inserts samples for a profile in a single transaction, numbering
// them after any already stored. It returns the profile's new sample count.
// ErrNotFound is returned when the profile does not exist.
func (r *SampleRepository) Append(profileID string, samples []json.RawMessage) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(sample_index) + 1, 0) FROM calibration_samples WHERE profile_id = ?`,
		profileID,
	).Scan(&next)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO calibration_samples (profile_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(profileID, next+i, string(data)); err != nil {
			return 0, err
		}
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM calibration_samples WHERE profile_id = ?`, profileID).Scan(&count); err != nil {
		return 0, err
	}

	result, err := tx.Exec(`UPDATE finger_profiles SET samples = ?, updated_at = ? WHERE id = ?`,
		count, time.Now(), profileID)
	if err != nil {
		return 0, err
	}
	if err := expectOneRow(result); err != nil {
		return 0, err
	}

	return count, tx.Commit()
}

// GetByProfileID retrieves all samples for a given profile in recording order.
func (r *SampleRepository) GetByProfileID(profileID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, profile_id, sample_index, data, created_at
		 FROM calibration_samples
		 WHERE profile_id = ?
		 ORDER BY sample_index`,
		profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// RawByProfileID returns just the sample payloads, ready for calibration.
func (r *SampleRepository) RawByProfileID(profileID string) ([]json.RawMessage, error) {
	samples, err := r.GetByProfileID(profileID)
	if err != nil {
		return nil, err
	}
	raw := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		raw[i] = s.Data
	}
	return raw, nil
}

// DeleteByProfileID removes all samples for a given profile and resets its
// sample count.
func (r *SampleRepository) DeleteByProfileID(profileID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM calibration_samples WHERE profile_id = ?`, profileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE finger_profiles SET samples = 0, updated_at = ? WHERE id = ?`,
		time.Now(), profileID); err != nil {
		return err
	}
	return tx.Commit()
}
