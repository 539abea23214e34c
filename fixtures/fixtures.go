// Package fixtures holds the static records every store is seeded with at startup.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rpupo63/fieldlens-backend/models"
)

//go:embed data/*.json
var embedded embed.FS

// Seed is the initial content of the three collections
type Seed struct {
	Projects    []models.Project
	Photos      []models.Photo
	TeamMembers []models.TeamMember
}

// Load reads the built-in fixtures
func Load() (Seed, error) {
	return load(func(name string) ([]byte, error) {
		return embedded.ReadFile("data/" + name)
	})
}

// LoadDir reads projects.json, photos.json and team.json from dir
func LoadDir(dir string) (Seed, error) {
	return load(func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	})
}

func load(read func(name string) ([]byte, error)) (Seed, error) {
	var seed Seed
	if err := decode(read, "projects.json", &seed.Projects); err != nil {
		return Seed{}, err
	}
	if err := decode(read, "photos.json", &seed.Photos); err != nil {
		return Seed{}, err
	}
	if err := decode(read, "team.json", &seed.TeamMembers); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func decode(read func(name string) ([]byte, error), name string, into any) error {
	raw, err := read(name)
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to decode fixture %s: %w", name, err)
	}
	return nil
}
