package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/rpupo63/fieldlens-backend/errs"
)

// MemoryRepo keeps a collection in process memory. Identifiers come from a counter owned by
// the repo, so they are never reused even after deletes.
type MemoryRepo[T Entity[T], P Patch[T]] struct {
	mu     sync.RWMutex
	entity string
	items  []T
	nextID int64
}

// NewMemoryRepo copies seed into a new repo. Seed records without an id are numbered after
// the highest seeded id. Duplicate ids are rejected.
func NewMemoryRepo[T Entity[T], P Patch[T]](entity string, seed []T) (*MemoryRepo[T, P], error) {
	r := &MemoryRepo[T, P]{entity: entity, nextID: 1}

	seen := make(map[int64]struct{}, len(seed))
	for _, item := range seed {
		id := item.Key()
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate %s id %d in seed data", entity, id)
		}
		seen[id] = struct{}{}
		if id >= r.nextID {
			r.nextID = id + 1
		}
	}

	r.items = make([]T, 0, len(seed))
	for _, item := range seed {
		if item.Key() == 0 {
			item = item.WithKey(r.nextID)
			r.nextID++
		}
		r.items = append(r.items, item.Clone())
	}
	return r, nil
}

func (r *MemoryRepo[T, P]) FindAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewCancelledError("find "+r.entity, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, len(r.items))
	for i, item := range r.items {
		out[i] = item.Clone()
	}
	return out, nil
}

func (r *MemoryRepo[T, P]) FindByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, errs.NewCancelledError("find "+r.entity, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return zero, errs.NewNotFound(r.entity)
	}
	return r.items[idx].Clone(), nil
}

func (r *MemoryRepo[T, P]) Add(ctx context.Context, item T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, errs.NewCancelledError("create "+r.entity, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := item.Clone().WithKey(r.nextID)
	r.nextID++
	r.items = append(r.items, stored)
	return stored.Clone(), nil
}

func (r *MemoryRepo[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	return r.Mutate(ctx, id, func(item *T) error {
		patch.Apply(item)
		return nil
	})
}

func (r *MemoryRepo[T, P]) Mutate(ctx context.Context, id int64, fn func(*T) error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, errs.NewCancelledError("update "+r.entity, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return zero, errs.NewNotFound(r.entity)
	}

	working := r.items[idx].Clone()
	if err := fn(&working); err != nil {
		return zero, err
	}
	// the identifier is not patchable
	working = working.WithKey(id)
	r.items[idx] = working
	return working.Clone(), nil
}

func (r *MemoryRepo[T, P]) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return errs.NewCancelledError("delete "+r.entity, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return errs.NewNotFound(r.entity)
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	return nil
}

// indexOf must be called with r.mu held
func (r *MemoryRepo[T, P]) indexOf(id int64) int {
	for i, item := range r.items {
		if item.Key() == id {
			return i
		}
	}
	return -1
}
