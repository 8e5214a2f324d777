package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/chakra/internal/hand"
)

func newInteractable(id, name string) *Interactable {
	return &Interactable{
		ID:         id,
		Name:       name,
		PluginName: "throw-physics",
		Config:     json.RawMessage(`{"mass":1.5}`),
		Position:   hand.Vec3{X: 0.1, Y: 0.2, Z: 1},
		Radius:     0.1,
		Enabled:    true,
	}
}

func TestInteractableRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Interactables()

	it := newInteractable("cube-1", "cube")
	if err := repo.Create(it); err != nil {
		t.Fatalf("failed to create interactable: %v", err)
	}
	if it.CreatedAt.IsZero() || it.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("cube-1")
	if err != nil {
		t.Fatalf("failed to get interactable: %v", err)
	}
	if got.Name != "cube" {
		t.Errorf("Name = %q, want %q", got.Name, "cube")
	}
	if got.PluginName != "throw-physics" {
		t.Errorf("PluginName = %q, want %q", got.PluginName, "throw-physics")
	}
	if got.Position != it.Position {
		t.Errorf("Position = %v, want %v", got.Position, it.Position)
	}
	if got.Radius != 0.1 {
		t.Errorf("Radius = %v, want 0.1", got.Radius)
	}
	if !got.Enabled {
		t.Error("Enabled should be true")
	}
	if string(got.Config) != `{"mass":1.5}` {
		t.Errorf("Config = %s, want {\"mass\":1.5}", got.Config)
	}
}

func TestInteractableRepository_EmptyConfigDefaults(t *testing.T) {
	s := newTestStore(t)
	repo := s.Interactables()

	it := newInteractable("sphere-1", "sphere")
	it.Config = nil
	if err := repo.Create(it); err != nil {
		t.Fatalf("failed to create interactable: %v", err)
	}

	got, err := repo.GetByID("sphere-1")
	if err != nil {
		t.Fatalf("failed to get interactable: %v", err)
	}
	if string(got.Config) != "{}" {
		t.Errorf("Config = %s, want {}", got.Config)
	}
}

func TestInteractableRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Interactables().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID error = %v, want ErrNotFound", err)
	}
}

func TestInteractableRepository_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Interactables()

	if err := repo.Create(newInteractable("a", "cube")); err != nil {
		t.Fatalf("failed to create interactable: %v", err)
	}
	if err := repo.Create(newInteractable("b", "cube")); err == nil {
		t.Error("creating a second interactable with the same name should fail")
	}
}

func TestInteractableRepository_RejectsNonPositiveRadius(t *testing.T) {
	s := newTestStore(t)

	it := newInteractable("flat", "flat")
	it.Radius = 0
	if err := s.Interactables().Create(it); err == nil {
		t.Error("zero radius should violate the check constraint")
	}
}

func TestInteractableRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Interactables()

	for _, it := range []*Interactable{
		newInteractable("3", "sphere"),
		newInteractable("1", "cube"),
		newInteractable("2", "lamp"),
	} {
		if err := repo.Create(it); err != nil {
			t.Fatalf("failed to create interactable: %v", err)
		}
	}

	disabled, err := repo.GetByID("2")
	if err != nil {
		t.Fatalf("failed to get interactable: %v", err)
	}
	disabled.Enabled = false
	if err := repo.Update(disabled); err != nil {
		t.Fatalf("failed to update interactable: %v", err)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list interactables: %v", err)
	}
	names := make([]string, len(all))
	for i, it := range all {
		names[i] = it.Name
	}
	want := []string{"cube", "lamp", "sphere"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("List names = %v, want %v", names, want)
		}
	}

	enabled, err := repo.ListEnabled()
	if err != nil {
		t.Fatalf("failed to list enabled interactables: %v", err)
	}
	if len(enabled) != 2 {
		t.Errorf("ListEnabled returned %d, want 2", len(enabled))
	}
}

func TestInteractableRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Interactables()

	it := newInteractable("cube-1", "cube")
	if err := repo.Create(it); err != nil {
		t.Fatalf("failed to create interactable: %v", err)
	}

	it.Position = hand.Vec3{X: -1, Y: 0, Z: 2}
	it.PluginName = ""
	if err := repo.Update(it); err != nil {
		t.Fatalf("failed to update interactable: %v", err)
	}

	got, err := repo.GetByID("cube-1")
	if err != nil {
		t.Fatalf("failed to get interactable: %v", err)
	}
	if got.Position != it.Position {
		t.Errorf("Position = %v, want %v", got.Position, it.Position)
	}
	if got.PluginName != "" {
		t.Errorf("PluginName = %q, want empty", got.PluginName)
	}

	missing := newInteractable("nope", "nope")
	if err := repo.Update(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update of missing row error = %v, want ErrNotFound", err)
	}
}

func TestInteractableRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Interactables()

	if err := repo.Create(newInteractable("cube-1", "cube")); err != nil {
		t.Fatalf("failed to create interactable: %v", err)
	}
	if err := repo.Delete("cube-1"); err != nil {
		t.Fatalf("failed to delete interactable: %v", err)
	}
	if _, err := repo.GetByID("cube-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("cube-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}
