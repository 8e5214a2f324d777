package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/chakra/internal/gesture"
)

// Profile is a named set of finger curl thresholds. Trained is set once the
// thresholds were derived from calibration samples rather than defaults.
type Profile struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Thresholds        gesture.ThresholdTable `json:"thresholds"`
	PalmOpenThreshold float64                `json:"palm_open_threshold"`
	Samples           int                    `json:"samples"`
	Trained           bool                   `json:"trained"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// ProfileRepository provides CRUD operations for finger profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, thresholds, palm_open_threshold, samples, trained, created_at, updated_at`

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var thresholds string
	var trained int

	if err := row.Scan(&p.ID, &p.Name, &thresholds, &p.PalmOpenThreshold,
		&p.Samples, &trained, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(thresholds), &p.Thresholds); err != nil {
		return nil, fmt.Errorf("profile %s: decode thresholds: %w", p.ID, err)
	}
	p.Trained = trained != 0
	return p, nil
}

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	thresholds, err := json.Marshal(p.Thresholds)
	if err != nil {
		return err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO finger_profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(thresholds), p.PalmOpenThreshold, p.Samples, p.Trained, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM finger_profiles WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a profile by its unique name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM finger_profiles WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all profiles, newest first.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM finger_profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile in the database.
func (r *ProfileRepository) Update(p *Profile) error {
	thresholds, err := json.Marshal(p.Thresholds)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE finger_profiles
		 SET name = ?, thresholds = ?, palm_open_threshold = ?, samples = ?, trained = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, string(thresholds), p.PalmOpenThreshold, p.Samples, p.Trained, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Delete removes a profile and its calibration samples.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM finger_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
