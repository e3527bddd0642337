package catalogdb

import (
	"log/slog"

	"github.com/gowvp/lynx/internal/core/catalog"
	"gorm.io/gorm"
)

var _ catalog.Storer = DB{}

// DB 基于 gorm 的目录存储实现
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 按开关执行表结构迁移
func (d DB) AutoMigrate(enabled bool) DB {
	if enabled {
		if err := d.db.AutoMigrate(&catalog.Camera{}, &catalog.Segment{}); err != nil {
			slog.Error("catalog auto migrate", "err", err)
		}
	}
	return d
}

func (d DB) Camera() catalog.CameraStorer {
	return NewCamera(d.db)
}

func (d DB) Segment() catalog.SegmentStorer {
	return NewSegment(d.db)
}
