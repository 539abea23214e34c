package database

import (
	"context"

	"github.com/rpupo63/fieldlens-backend/models"
)

// Entity is implemented by every stored model. Clone must return a value that shares no
// mutable state with the receiver.
type Entity[T any] interface {
	Key() int64
	WithKey(id int64) T
	Clone() T
}

// Patch applies a partial update in place
type Patch[T any] interface {
	Apply(*T)
}

// Repo is the storage contract shared by every entity collection. Results are always copies;
// mutating them never changes stored state.
type Repo[T any, P any] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id int64) (T, error)
	// Add assigns a fresh identifier, ignoring any id set on item
	Add(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id int64, patch P) (T, error)
	// Mutate runs fn on the stored record and saves the result atomically. If fn returns an
	// error nothing is written.
	Mutate(ctx context.Context, id int64, fn func(*T) error) (T, error)
	Delete(ctx context.Context, id int64) error
}

type (
	ProjectRepo    = Repo[models.Project, models.ProjectPatch]
	PhotoRepo      = Repo[models.Photo, models.PhotoPatch]
	TeamMemberRepo = Repo[models.TeamMember, models.TeamMemberPatch]
)
