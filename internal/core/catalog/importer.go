package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
)

// 片段文件名中的时间戳，如 gate_2025-06-15_10-03-20.mp4
var segmentTimeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})`)

// ImportResult 存量文件导入结果
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// ImportOrphans 扫描存储目录，把不在目录表中的存量录像文件补录进来
// 目录结构约定为 {storage_dir}/{camera_id}/xxx.mp4
// 文件名解析不出开始时间的按修改时间入库，时长按名义切片时长估算
func (c Core) ImportOrphans(ctx context.Context) (*ImportResult, error) {
	if c.conf == nil || c.conf.StorageDir == "" {
		return &ImportResult{}, nil
	}

	dir := c.conf.StorageDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(system.Getwd(), dir)
	}

	var result ImportResult
	nominal := float64(c.SegmentSeconds())

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".mp4") {
			return nil
		}

		// 已入库的跳过
		count, err := c.store.Segment().Count(ctx, orm.Where("filename = ?", d.Name()))
		if err != nil {
			result.Errors++
			return nil
		}
		if count > 0 {
			result.Skipped++
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			result.Errors++
			return nil
		}
		cameraID := strings.Split(filepath.ToSlash(rel), "/")[0]
		if cameraID == "" || cameraID == "." {
			result.Errors++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors++
			return nil
		}

		startedAt := info.ModTime()
		if m := segmentTimeRe.FindString(d.Name()); m != "" {
			if ts, err := time.ParseInLocation("2006-01-02_15-04-05", m, time.Local); err == nil {
				startedAt = ts
			}
		}

		if _, err := c.AddSegment(ctx, &AddSegmentInput{
			CameraID:  cameraID,
			Filename:  d.Name(),
			Path:      rel,
			Size:      info.Size(),
			StartedAt: orm.Time{Time: startedAt},
			Duration:  nominal,
		}); err != nil {
			slog.WarnContext(ctx, "import segment failed", "file", d.Name(), "err", err)
			result.Errors++
			return nil
		}
		result.Imported++
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "orphan segment import completed",
		"imported", result.Imported, "skipped", result.Skipped, "errors", result.Errors)
	return &result, nil
}
