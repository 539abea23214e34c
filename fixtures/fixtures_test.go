package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	seed, err := Load()
	require.NoError(t, err)

	assert.Len(t, seed.Projects, 4)
	assert.Len(t, seed.Photos, 6)
	assert.Len(t, seed.TeamMembers, 5)

	counts := map[int64]int{}
	for _, p := range seed.Photos {
		counts[p.ProjectID]++
	}
	for _, p := range seed.Projects {
		assert.Equal(t, counts[p.ID], p.PhotoCount, "photoCount of project %d", p.ID)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	write("projects.json", `[{"Id": 1, "name": "Only", "status": "active", "teamMembers": []}]`)
	write("photos.json", `[]`)
	write("team.json", `[]`)

	seed, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, seed.Projects, 1)
	assert.Equal(t, "Only", seed.Projects[0].Name)

	write("photos.json", `{not json`)
	_, err = LoadDir(dir)
	assert.ErrorContains(t, err, "photos.json")

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
