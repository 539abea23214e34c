package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/fixtures"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func loadSeed(t *testing.T) fixtures.Seed {
	t.Helper()
	seed, err := fixtures.Load()
	require.NoError(t, err)
	return seed
}

func newMemoryDB(t *testing.T) Database {
	t.Helper()
	db, err := NewMemory(loadSeed(t))
	require.NoError(t, err)
	return db
}

func newSQLiteDB(t *testing.T) Database {
	t.Helper()
	gdb, err := Open(Options{
		Driver:   DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "fieldlens.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	require.NoError(t, Seed(context.Background(), gdb, loadSeed(t)))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGorm(gdb)
}

// Both backends honour the same repository contract
func TestProjectRepoContract(t *testing.T) {
	backends := map[string]func(*testing.T) Database{
		"memory": newMemoryDB,
		"sqlite": newSQLiteDB,
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t).ProjectRepo()

			all, err := repo.FindAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, int64(1), all[0].ID)

			_, err = repo.FindByID(ctx, 99)
			assert.True(t, errs.IsNotFound(err))

			created, err := repo.Add(ctx, models.Project{
				ID:          42,
				Name:        "Dock Repair",
				Status:      models.ProjectStatusActive,
				TeamMembers: []int64{2},
			})
			require.NoError(t, err)
			assert.Equal(t, int64(5), created.ID, "ids continue after the highest seeded id")

			name := "Dock Repair Phase 2"
			updated, err := repo.Update(ctx, created.ID, models.ProjectPatch{Name: &name})
			require.NoError(t, err)
			assert.Equal(t, name, updated.Name)
			assert.Equal(t, models.ProjectStatusActive, updated.Status)
			assert.Equal(t, []int64{2}, []int64(updated.TeamMembers))

			boom := errors.New("boom")
			_, err = repo.Mutate(ctx, created.ID, func(p *models.Project) error {
				p.Name = "should not persist"
				return boom
			})
			require.ErrorIs(t, err, boom)

			fetched, err := repo.FindByID(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, name, fetched.Name)

			require.NoError(t, repo.Delete(ctx, created.ID))
			_, err = repo.FindByID(ctx, created.ID)
			assert.True(t, errs.IsNotFound(err))
			assert.True(t, errs.IsNotFound(repo.Delete(ctx, created.ID)))
		})
	}
}

func TestPhotoRepo_JSONColumns(t *testing.T) {
	for name, open := range map[string]func(*testing.T) Database{"memory": newMemoryDB, "sqlite": newSQLiteDB} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t).PhotoRepo()

			photo, err := repo.FindByID(ctx, 1)
			require.NoError(t, err)
			require.Len(t, photo.Annotations, 1)
			assert.Equal(t, []string{"interior", "damage"}, []string(photo.Tags))

			annotations := append([]models.Annotation(nil), photo.Annotations...)
			annotations = append(annotations, models.Annotation{
				ID:          "a-new",
				Type:        models.AnnotationKindText,
				Coordinates: models.Coordinates{X: 10, Y: 90},
				Content:     "Check joist",
				Color:       models.DefaultAnnotationColor,
				CreatedBy:   "John Doe",
			})
			saved, err := repo.Update(ctx, 1, models.PhotoPatch{Annotations: &annotations})
			require.NoError(t, err)
			require.Len(t, saved.Annotations, 2)

			again, err := repo.FindByID(ctx, 1)
			require.NoError(t, err)
			require.Len(t, again.Annotations, 2)
			assert.Equal(t, "Check joist", again.Annotations[1].Content)
			assert.Equal(t, 90.0, again.Annotations[1].Coordinates.Y)
		})
	}
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryDB(t).ProjectRepo()

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	p.TeamMembers[0] = 999
	p.Name = "changed"

	stored, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", stored.Name)
	assert.Equal(t, int64(1), stored.TeamMembers[0])
}

func TestMemoryRepo_IDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	repo, err := NewMemoryRepo[models.TeamMember, models.TeamMemberPatch]("team member", []models.TeamMember{
		{ID: 1, Name: "A"},
		{ID: 2, Name: "B"},
	})
	require.NoError(t, err)

	third, err := repo.Add(ctx, models.TeamMember{Name: "C"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID)

	require.NoError(t, repo.Delete(ctx, third.ID))
	fourth, err := repo.Add(ctx, models.TeamMember{Name: "D"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), fourth.ID)
}

func TestMemoryRepo_EmptySeedStartsAtOne(t *testing.T) {
	repo, err := NewMemoryRepo[models.Project, models.ProjectPatch]("project", nil)
	require.NoError(t, err)

	created, err := repo.Add(context.Background(), models.Project{Name: "First"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestMemoryRepo_SeedValidation(t *testing.T) {
	_, err := NewMemoryRepo[models.Project, models.ProjectPatch]("project", []models.Project{{ID: 1}, {ID: 1}})
	require.Error(t, err)

	repo, err := NewMemoryRepo[models.Project, models.ProjectPatch]("project", []models.Project{{Name: "no id"}, {ID: 7}})
	require.NoError(t, err)
	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), all[0].ID)
	assert.Equal(t, int64(7), all[1].ID)
}

func TestMemoryRepo_CancelledContext(t *testing.T) {
	repo := newMemoryDB(t).ProjectRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Add(ctx, models.Project{Name: "never"})
	assert.True(t, errs.IsCancelled(err))

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryRepo_ConcurrentAddsGetUniqueIDs(t *testing.T) {
	repo := newMemoryDB(t).PhotoRepo()
	ctx := context.Background()

	const n = 64
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := repo.Add(ctx, models.Photo{ProjectID: 1, URL: "x"})
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSeed_SkipsPopulatedTables(t *testing.T) {
	gdb, err := Open(Options{
		Driver:   DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "seed.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(gdb))

	seed := loadSeed(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, gdb, seed))
	require.NoError(t, Seed(ctx, gdb, seed))

	var count int64
	require.NoError(t, gdb.Model(&models.Photo{}).Count(&count).Error)
	assert.Equal(t, int64(len(seed.Photos)), count)
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "oracle"})
	require.Error(t, err)

	_, err = Open(Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "r.db"), ReadReplicaDSNs: []string{"x"}})
	require.Error(t, err)
}
