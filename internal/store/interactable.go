package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayusman/chakra/internal/hand"
)

// Interactable is a persisted interactable object. PluginName, when set,
// names the plugin run on activation and on throw.
type Interactable struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PluginName string          `json:"plugin_name,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
	Position   hand.Vec3       `json:"position"`
	Radius     float64         `json:"radius"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InteractableRepository provides CRUD operations for interactables.
type InteractableRepository struct {
	db *sql.DB
}

// Interactables returns the interactable repository for this store.
func (s *Store) Interactables() *InteractableRepository {
	return &InteractableRepository{db: s.db}
}

const interactableColumns = `id, name, plugin_name, config, x, y, z, radius, enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteractable(row rowScanner) (*Interactable, error) {
	it := &Interactable{}
	var config string
	var enabled int

	err := row.Scan(&it.ID, &it.Name, &it.PluginName, &config,
		&it.Position.X, &it.Position.Y, &it.Position.Z, &it.Radius,
		&enabled, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}

	it.Config = json.RawMessage(config)
	it.Enabled = enabled != 0
	return it, nil
}

func configOrEmpty(c json.RawMessage) string {
	if len(c) == 0 {
		return "{}"
	}
	return string(c)
}

// Create inserts a new interactable into the database.
func (r *InteractableRepository) Create(it *Interactable) error {
	now := time.Now()
	it.CreatedAt = now
	it.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO interactables (`+interactableColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Name, it.PluginName, configOrEmpty(it.Config),
		it.Position.X, it.Position.Y, it.Position.Z, it.Radius,
		it.Enabled, it.CreatedAt, it.UpdatedAt,
	)
	return err
}

// GetByID retrieves an interactable by its ID.
func (r *InteractableRepository) GetByID(id string) (*Interactable, error) {
	it, err := scanInteractable(r.db.QueryRow(
		`SELECT `+interactableColumns+` FROM interactables WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

// List retrieves all interactables ordered by name.
func (r *InteractableRepository) List() ([]*Interactable, error) {
	return r.query(`SELECT ` + interactableColumns + ` FROM interactables ORDER BY name`)
}

// ListEnabled retrieves the interactables that should be registered at
// startup.
func (r *InteractableRepository) ListEnabled() ([]*Interactable, error) {
	return r.query(`SELECT ` + interactableColumns + ` FROM interactables WHERE enabled = 1 ORDER BY name`)
}

func (r *InteractableRepository) query(q string, args ...any) ([]*Interactable, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Interactable
	for rows.Next() {
		it, err := scanInteractable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Update updates an existing interactable in the database.
func (r *InteractableRepository) Update(it *Interactable) error {
	it.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE interactables
		 SET name = ?, plugin_name = ?, config = ?, x = ?, y = ?, z = ?, radius = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		it.Name, it.PluginName, configOrEmpty(it.Config),
		it.Position.X, it.Position.Y, it.Position.Z, it.Radius,
		it.Enabled, it.UpdatedAt, it.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Delete removes an interactable from the database by its ID.
func (r *InteractableRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM interactables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
