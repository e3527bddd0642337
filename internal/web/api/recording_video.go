package api

import (
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
)

// remuxCache 纯视频文件缓存，原始路径到去音频副本的映射
// remux 较慢，同一文件只做一次
type remuxCache struct {
	mu    sync.Mutex
	paths map[string]string
}

func newRemuxCache() *remuxCache {
	return &remuxCache{paths: make(map[string]string)}
}

func (rc *remuxCache) lookup(src string) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	dst, ok := rc.paths[src]
	return dst, ok
}

func (rc *remuxCache) store(src, dst string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.paths[src] = dst
}

// RegisterRecordingVideoOnly 注册纯视频静态文件服务
// 需要在 RegisterRecording 之后调用
func RegisterRecordingVideoOnly(g gin.IRouter, api RecordingAPI, handler ...gin.HandlerFunc) {
	g.GET("/static/recordings-video/*path", append(handler, api.serveVideoOnly)...)
}

// serveVideoOnly 提供去掉音频轨道的录像副本
// HLS.js 无法处理 G.711 音频，这类文件按需 remux 出纯视频版本
func (a RecordingAPI) serveVideoOnly(c *gin.Context) {
	requestPath := c.Param("path")
	if requestPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "path is required"})
		return
	}

	originalPath := filepath.Join(a.conf.Server.Recording.StorageDir, requestPath)
	if _, err := os.Stat(originalPath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "file not found"})
		return
	}

	// 缓存文件可能已被保留策略连同源文件一起清理，命中后再确认一次
	if cached, ok := a.remux.lookup(originalPath); ok {
		if _, err := os.Stat(cached); err == nil {
			c.File(cached)
			return
		}
	}

	videoOnlyPath, err := a.stripAudio(originalPath)
	if err != nil {
		slog.Error("创建纯视频文件失败", "path", originalPath, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}
	a.remux.store(originalPath, videoOnlyPath)
	c.File(videoOnlyPath)
}

// stripAudio 用 ffmpeg 产出无音频副本，视频流直接复制不转码
func (a RecordingAPI) stripAudio(originalPath string) (string, error) {
	cacheDir := filepath.Join(a.conf.Server.Recording.StorageDir, ".video-cache")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("创建缓存目录失败: %w", err)
	}

	// 文件名取原始路径的 MD5，避免子目录分隔符问题
	outputPath := filepath.Join(cacheDir, fmt.Sprintf("%x.mp4", md5.Sum([]byte(originalPath))))
	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	// -movflags +faststart 把 moov 挪到文件头，支持边下载边播放
	cmd := exec.Command("ffmpeg",
		"-y",
		"-i", originalPath,
		"-an",
		"-c:v", "copy",
		"-movflags", "+faststart",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg 执行失败: %w, output: %s", err, string(output))
	}

	slog.Info("创建纯视频文件成功", "original", originalPath, "output", outputPath)
	return outputPath, nil
}
