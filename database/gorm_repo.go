package database

import (
	"context"
	"errors"

	"github.com/rpupo63/fieldlens-backend/errs"
	"gorm.io/gorm"
)

// GormRepo stores a collection in a relational table through GORM
type GormRepo[T Entity[T], P Patch[T]] struct {
	db     *gorm.DB
	entity string
}

func NewGormRepo[T Entity[T], P Patch[T]](db *gorm.DB, entity string) *GormRepo[T, P] {
	return &GormRepo[T, P]{db: db, entity: entity}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *GormRepo[T, P]) GetDB() *gorm.DB {
	return r.db
}

func (r *GormRepo[T, P]) FindAll(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, r.wrap(ctx, "find", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *GormRepo[T, P]) FindByID(ctx context.Context, id int64) (T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		var zero T
		return zero, r.wrap(ctx, "find", err)
	}
	return item, nil
}

func (r *GormRepo[T, P]) Add(ctx context.Context, item T) (T, error) {
	record := item.Clone().WithKey(0)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		var zero T
		return zero, r.wrap(ctx, "create", err)
	}
	return record, nil
}

func (r *GormRepo[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	return r.Mutate(ctx, id, func(item *T) error {
		patch.Apply(item)
		return nil
	})
}

func (r *GormRepo[T, P]) Mutate(ctx context.Context, id int64, fn func(*T) error) (T, error) {
	var item T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return r.wrap(ctx, "find", err)
		}
		if err := fn(&item); err != nil {
			return err
		}
		item = item.WithKey(id)
		if err := tx.Save(&item).Error; err != nil {
			return r.wrap(ctx, "update", err)
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func (r *GormRepo[T, P]) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return r.wrap(ctx, "delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound(r.entity)
	}
	return nil
}

func (r *GormRepo[T, P]) wrap(ctx context.Context, operation string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NewNotFound(r.entity)
	case ctx.Err() != nil:
		return errs.NewCancelledError(operation+" "+r.entity, ctx.Err())
	}
	return errs.NewDatabaseError(operation, r.entity, err)
}
