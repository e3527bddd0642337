package data

import (
	"context"
	"log/slog"
	"time"

	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// LegacyRecording 旧版本的录像模型（用于迁移）
// 旧表按 file_path 存绝对路径，按 recording_date 存日期列
type LegacyRecording struct {
	ID            int64     `gorm:"primaryKey"`
	CameraID      string    `gorm:"column:camera_id"`
	Filename      string    `gorm:"column:filename"`
	FilePath      string    `gorm:"column:file_path"`
	FileSize      int64     `gorm:"column:file_size"`
	StartTime     time.Time `gorm:"column:start_time"`
	EndTime       time.Time `gorm:"column:end_time"`
	Duration      float64   `gorm:"column:duration"`
	RecordingDate string    `gorm:"column:recording_date"`
}

func (*LegacyRecording) TableName() string {
	return "recordings"
}

// MigrateLegacyRecordings 迁移旧 recordings 表数据到 segments 表
// 迁移完成后，旧表数据保留，建议手动确认后删除
func MigrateLegacyRecordings(db *gorm.DB) error {
	ctx := context.Background()

	if !db.Migrator().HasTable("recordings") {
		slog.Info("没有需要迁移的旧表数据")
		return nil
	}

	var legacy []LegacyRecording
	if err := db.WithContext(ctx).Find(&legacy).Error; err != nil {
		slog.Error("查询 recordings 失败", "err", err)
		return err
	}

	migratedCount := 0
	for _, rec := range legacy {
		// 文件名唯一，已存在说明迁移过，跳过
		var count int64
		if err := db.WithContext(ctx).Model(&catalog.Segment{}).
			Where("filename = ?", rec.Filename).Count(&count).Error; err != nil {
			slog.Error("检查片段是否存在失败", "err", err, "filename", rec.Filename)
			continue
		}
		if count > 0 {
			slog.Debug("片段已存在，跳过", "filename", rec.Filename)
			continue
		}

		day := rec.RecordingDate
		if day == "" {
			day = rec.StartTime.Format("2006-01-02")
		}
		seg := catalog.Segment{
			CameraID:  rec.CameraID,
			Filename:  rec.Filename,
			Path:      rec.FilePath,
			Size:      rec.FileSize,
			StartedAt: orm.Time{Time: rec.StartTime},
			EndedAt:   orm.Time{Time: rec.EndTime},
			Duration:  rec.Duration,
			Day:       day,
			CreatedAt: orm.Now(),
		}
		if err := db.WithContext(ctx).Create(&seg).Error; err != nil {
			slog.Error("迁移片段失败", "err", err, "filename", rec.Filename)
			continue
		}
		migratedCount++
	}
	slog.Info("录像数据迁移完成", "total", len(legacy), "migrated", migratedCount)
	return nil
}
