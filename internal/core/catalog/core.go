package catalog

import (
	"context"

	"github.com/gowvp/lynx/internal/conf"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// Storer data persistence
type Storer interface {
	Camera() CameraStorer
	Segment() SegmentStorer
}

// CameraStorer 摄像机存储接口
type CameraStorer interface {
	Find(context.Context, *[]*Camera, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Camera, ...orm.QueryOption) error
	Add(context.Context, *Camera) error
	Edit(context.Context, *Camera, func(*Camera), ...orm.QueryOption) error
	Del(context.Context, *Camera, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)
}

// SegmentStorer 录像片段存储接口
// 片段入库后不可变，只有清理流程会删除
type SegmentStorer interface {
	Find(context.Context, *[]*Segment, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Segment, ...orm.QueryOption) error
	Add(context.Context, *Segment) error
	Del(context.Context, *Segment, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Core business domain
type Core struct {
	store Storer
	conf  *conf.ServerRecording
	uni   uniqueid.Core
}

type Option func(*Core)

// WithConfig 注入录像存储配置
func WithConfig(c *conf.ServerRecording) Option {
	return func(core *Core) {
		core.conf = c
	}
}

// NewCore create business domain
func NewCore(store Storer, uni uniqueid.Core, opts ...Option) Core {
	c := Core{store: store, uni: uni}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// SegmentSeconds 切片名义时长（秒），限制在 60~3600 之间
func (c Core) SegmentSeconds() int {
	sec := 300
	if c.conf != nil && c.conf.SegmentSeconds > 0 {
		sec = c.conf.SegmentSeconds
	}
	sec = max(sec, 60)
	sec = min(sec, 3600)
	return sec
}

// GetFullPath 获取录像文件的完整路径
// relativePath 可能是相对于 StorageDir 的路径，也可能已经是完整路径
func (c Core) GetFullPath(relativePath string) string {
	if c.conf == nil || c.conf.StorageDir == "" {
		return relativePath
	}
	if len(relativePath) > 0 && relativePath[0] == '/' {
		return relativePath
	}
	return c.conf.StorageDir + "/" + relativePath
}
