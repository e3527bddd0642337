package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/shirou/gopsutil/v4/disk"
	"gorm.io/gorm"
)

// StartCleanupWorker 启动定时清理协程
// 程序启动时执行一次清理，随后每 60 分钟执行一次
func (c Core) StartCleanupWorker() {
	if c.conf == nil || c.conf.Disabled {
		slog.Info("segment cleanup disabled")
		return
	}

	slog.Info("segment cleanup worker started",
		"retain_days", c.conf.RetainDays,
		"disk_threshold", c.conf.DiskUsageThreshold,
		"storage_dir", c.conf.StorageDir,
	)

	c.runCleanup()

	ticker := time.NewTicker(60 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.runCleanup()
	}
}

// runCleanup 先预标记即将过期的片段，再清理过期片段，最后处理磁盘空间
func (c Core) runCleanup() {
	c.markExpiringSegments()
	c.cleanupExpiredSegments()
	c.cleanupByDiskUsage()
}

// markExpiringSegments 预标记 1 小时内即将过期的片段
// 前端据此提示"该录像即将被清理"
func (c Core) markExpiringSegments() {
	if c.conf.RetainDays <= 0 {
		return
	}

	ctx := context.Background()
	expiryCutoff := time.Now().Add(time.Hour).AddDate(0, 0, -c.conf.RetainDays)

	err := c.store.Segment().Session(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Segment{}).
			Where("delete_flag = ?", false).
			Where("started_at < ?", orm.Time{Time: expiryCutoff}).
			Update("delete_flag", true).Error
	})
	if err != nil {
		slog.Warn("failed to mark expiring segments", "err", err)
	}
}

// cleanupExpiredSegments 清理超过保留天数的片段
func (c Core) cleanupExpiredSegments() {
	if c.conf.RetainDays <= 0 {
		return
	}

	ctx := context.Background()
	cutoffTime := time.Now().AddDate(0, 0, -c.conf.RetainDays)

	totalDeleted, filesDeleted, failedFiles, freedBytes := c.batchDeleteSegments(ctx,
		orm.Where("started_at < ?", orm.Time{Time: cutoffTime}),
	)

	if totalDeleted > 0 || failedFiles > 0 {
		slog.Info("expired segment cleanup completed",
			"reason", "retention_policy",
			"retain_days", c.conf.RetainDays,
			"cutoff_time", cutoffTime.Format(time.DateTime),
			"segments_deleted", totalDeleted,
			"files_deleted", filesDeleted,
			"failed_files", failedFiles,
			"freed_bytes", freedBytes,
		)
	}
}

// cleanupByDiskUsage 基于磁盘使用率清理
// 超过阈值时从最旧的片段开始删除，直到使用率降到阈值以下
func (c Core) cleanupByDiskUsage() {
	if c.conf.DiskUsageThreshold <= 0 || c.conf.DiskUsageThreshold >= 100 {
		return
	}

	storageDir := c.conf.StorageDir
	if storageDir == "" {
		storageDir = "./recordings"
	}

	absStorageDir := storageDir
	if !filepath.IsAbs(absStorageDir) {
		absStorageDir = filepath.Join(system.Getwd(), storageDir)
	}
	if _, err := os.Stat(absStorageDir); os.IsNotExist(err) {
		return
	}

	usage, err := disk.Usage(absStorageDir)
	if err != nil {
		slog.Warn("failed to get disk usage", "err", err)
		return
	}
	if usage.UsedPercent < c.conf.DiskUsageThreshold {
		return
	}

	ctx := context.Background()

	// 以最近一小时新写入的总量估算需要腾出的空间，至少 100MB
	oneHourAgo := time.Now().Add(-1 * time.Hour)
	var recent []*Segment
	_, _ = c.store.Segment().Find(ctx, &recent, &defaultPager{limit: 1000},
		orm.Where("created_at >= ?", orm.Time{Time: oneHourAgo}),
	)

	var targetBytes int64
	for _, s := range recent {
		targetBytes += s.Size
	}
	if targetBytes < 100*1024*1024 {
		targetBytes = 100 * 1024 * 1024
	}

	var freedBytes int64
	var deletedCount, failedCount int

	for freedBytes < targetBytes {
		var oldest []*Segment
		pager := web.PagerFilter{Page: 1, Size: 50}
		if _, err := c.store.Segment().Find(ctx, &oldest, &pager, orm.OrderBy("started_at ASC")); err != nil || len(oldest) == 0 {
			break
		}

		var deleteIDs []int64
		for _, s := range oldest {
			filePath := c.GetFullPath(s.Path)
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(system.Getwd(), filePath)
			}
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				failedCount++
			} else {
				freedBytes += s.Size
			}
			deleteIDs = append(deleteIDs, s.ID)
		}

		if len(deleteIDs) > 0 {
			err := c.store.Segment().Session(ctx, func(tx *gorm.DB) error {
				return tx.Where("id IN ?", deleteIDs).Delete(&Segment{}).Error
			})
			if err != nil {
				slog.Warn("failed to delete segment rows", "err", err)
				break
			}
			deletedCount += len(deleteIDs)
		}

		if u, err := disk.Usage(absStorageDir); err == nil && u.UsedPercent < c.conf.DiskUsageThreshold {
			break
		}
	}

	cleanupEmptyDirs(absStorageDir)

	if deletedCount > 0 || failedCount > 0 {
		slog.Info("disk usage cleanup completed",
			"reason", "disk_threshold_exceeded",
			"threshold", c.conf.DiskUsageThreshold,
			"segments_deleted", deletedCount,
			"failed_files", failedCount,
			"freed_bytes", freedBytes,
		)
	}
}

// batchDeleteSegments 批量删除片段（文件+数据库记录）
// 文件可能已被外部手段删除，按不存在处理而非失败
func (c Core) batchDeleteSegments(ctx context.Context, conditions ...orm.QueryOption) (totalDeleted, filesDeleted, failedFiles int, freedBytes int64) {
	for {
		var segments []*Segment
		pager := web.PagerFilter{Page: 1, Size: 100}
		if _, err := c.store.Segment().Find(ctx, &segments, &pager, conditions...); err != nil || len(segments) == 0 {
			break
		}

		var deleteIDs []int64
		for _, s := range segments {
			filePath := c.GetFullPath(s.Path)
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(system.Getwd(), filePath)
			}
			if err := os.Remove(filePath); err != nil {
				if !os.IsNotExist(err) {
					failedFiles++
				}
			} else {
				filesDeleted++
				freedBytes += s.Size
			}
			deleteIDs = append(deleteIDs, s.ID)
		}

		if len(deleteIDs) > 0 {
			err := c.store.Segment().Session(ctx, func(tx *gorm.DB) error {
				return tx.Where("id IN ?", deleteIDs).Delete(&Segment{}).Error
			})
			if err != nil {
				// 记录删不掉时下一轮 Find 会捞回同一批，结束本轮等下个周期
				slog.Warn("failed to delete segment rows", "err", err)
				break
			}
			totalDeleted += len(deleteIDs)
		}
	}

	if c.conf != nil && c.conf.StorageDir != "" {
		dir := c.conf.StorageDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(system.Getwd(), dir)
		}
		cleanupEmptyDirs(dir)
	}

	return
}

// cleanupEmptyDirs 递归删除空目录
func cleanupEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			subDir := filepath.Join(dir, entry.Name())
			cleanupEmptyDirs(subDir)

			subEntries, err := os.ReadDir(subDir)
			if err == nil && len(subEntries) == 0 {
				_ = os.Remove(subDir)
			}
		}
	}
}
