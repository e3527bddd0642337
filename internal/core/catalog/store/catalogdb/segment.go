package catalogdb

import (
	"context"

	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ catalog.SegmentStorer = Segment{}

type Segment struct {
	db *gorm.DB
}

func NewSegment(db *gorm.DB) Segment {
	return Segment{db: db}
}

// Find implements catalog.SegmentStorer.
func (s Segment) Find(ctx context.Context, out *[]*catalog.Segment, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := s.db.WithContext(ctx).Model(&catalog.Segment{})
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

// Get implements catalog.SegmentStorer.
func (s Segment) Get(ctx context.Context, out *catalog.Segment, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.First(out).Error
}

// Add implements catalog.SegmentStorer.
func (s Segment) Add(ctx context.Context, in *catalog.Segment) error {
	return s.db.WithContext(ctx).Create(in).Error
}

// Del implements catalog.SegmentStorer.
func (s Segment) Del(ctx context.Context, out *catalog.Segment, opts ...orm.QueryOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

// Count implements catalog.SegmentStorer.
func (s Segment) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	db := s.db.WithContext(ctx).Model(&catalog.Segment{})
	for _, opt := range opts {
		db = opt(db)
	}
	err := db.Count(&total).Error
	return total, err
}

// Session implements catalog.SegmentStorer.
func (s Segment) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	db := s.db.WithContext(ctx)
	for _, fn := range changeFns {
		if err := fn(db); err != nil {
			return err
		}
	}
	return nil
}
