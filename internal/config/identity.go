package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNoIdentity is returned when no local identity has been created yet.
var ErrNoIdentity = errors.New("no local identity: run 'soup join <name>' first")

// Identity is the local player identity, stable across restarts.
type Identity struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// NewIdentity returns a fresh identity with a random player ID.
func NewIdentity(name string) *Identity {
	return &Identity{
		PlayerID: uuid.NewString(),
		Name:     strings.TrimSpace(name),
	}
}

// LoadIdentity reads dir/identity.json.
func LoadIdentity(dir string) (*Identity, error) {
	data, err := os.ReadFile(filepath.Join(dir, "identity.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("failed to parse identity: %w", err)
	}
	if id.PlayerID == "" {
		return nil, ErrNoIdentity
	}
	return &id, nil
}

// SaveIdentity writes identity.json to dir.
func SaveIdentity(dir string, id *Identity) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create identity dir: %w", err)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "identity.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	return nil
}

// LoadOrCreateIdentity returns the stored identity renamed to name, or a new
// one when none exists. The result is saved either way.
func LoadOrCreateIdentity(dir, name string) (*Identity, error) {
	id, err := LoadIdentity(dir)
	switch {
	case errors.Is(err, ErrNoIdentity):
		id = NewIdentity(name)
	case err != nil:
		return nil, err
	default:
		id.Name = strings.TrimSpace(name)
	}
	if err := SaveIdentity(dir, id); err != nil {
		return nil, err
	}
	return id, nil
}
