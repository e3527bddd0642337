package catalogdb

import (
	"context"

	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ catalog.CameraStorer = Camera{}

type Camera struct {
	db *gorm.DB
}

func NewCamera(db *gorm.DB) Camera {
	return Camera{db: db}
}

// Find implements catalog.CameraStorer.
func (c Camera) Find(ctx context.Context, out *[]*catalog.Camera, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := c.db.WithContext(ctx).Model(&catalog.Camera{})
	for _, opt := range opts {
		db = opt(db)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if pager != nil {
		db = db.Offset(pager.Offset()).Limit(pager.Limit())
	}
	return total, db.Find(out).Error
}

// Get implements catalog.CameraStorer.
func (c Camera) Get(ctx context.Context, out *catalog.Camera, opts ...orm.QueryOption) error {
	db := c.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

// Add implements catalog.CameraStorer.
func (c Camera) Add(ctx context.Context, in *catalog.Camera) error {
	return c.db.WithContext(ctx).Create(in).Error
}

// Edit implements catalog.CameraStorer.
func (c Camera) Edit(ctx context.Context, out *catalog.Camera, changeFn func(*catalog.Camera), opts ...orm.QueryOption) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, opt := range opts {
			db = opt(db)
		}
		if err := db.First(out).Error; err != nil {
			return err
		}
		changeFn(out)
		return tx.Save(out).Error
	})
}

// Del implements catalog.CameraStorer.
func (c Camera) Del(ctx context.Context, out *catalog.Camera, opts ...orm.QueryOption) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, opt := range opts {
			db = opt(db)
		}
		if err := db.First(out).Error; err != nil {
			return err
		}
		return tx.Delete(out).Error
	})
}

// Count implements catalog.CameraStorer.
func (c Camera) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	db := c.db.WithContext(ctx).Model(&catalog.Camera{})
	for _, opt := range opts {
		db = opt(db)
	}
	err := db.Count(&total).Error
	return total, err
}
