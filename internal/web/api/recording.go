package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lynx/internal/conf"
	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/gowvp/lynx/internal/core/timeline"
	"github.com/grafov/m3u8"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// RecordingAPI 为 http 提供录像目录与时间轴业务方法
type RecordingAPI struct {
	catalogCore catalog.Core
	conf        *conf.Bootstrap
	remux       *remuxCache
}

func NewRecordingAPI(core catalog.Core, conf *conf.Bootstrap) RecordingAPI {
	return RecordingAPI{catalogCore: core, conf: conf, remux: newRemuxCache()}
}

func RegisterRecording(g gin.IRouter, api RecordingAPI, handler ...gin.HandlerFunc) {
	{
		group := g.Group("/recordings", handler...)
		group.GET("", web.WrapH(api.findRecordings))
		group.GET("/dates", web.WrapH(api.getDates))
		group.GET("/timeline", web.WrapH(api.getTimeline))
		group.GET("/resolve", web.WrapH(api.resolveTimestamp))
		group.GET("/monthly", web.WrapH(api.getMonthlyStats))
		group.GET("/progress", web.WrapH(api.getProgress))
		group.POST("/import", web.WrapH(api.importOrphans))
		group.GET("/:id", web.WrapH(api.getRecording))
		group.DELETE("/:id", web.WrapH(api.delRecording))
		group.GET("/:id/download", api.downloadRecording)
	}

	// HLS 播放列表（根据通道 ID 和时间范围生成 m3u8）
	// token 放查询参数，HLS 播放器不带请求头
	g.GET("/recordings/channels/:cid/index.m3u8", api.channelPlaylist)

	// 录制管线在片段文件封口后回调写入
	g.POST("/recordings/segments", web.WrapH(api.addSegment))

	// 静态文件服务，用于访问录像 MP4 文件
	// Gin Static 支持 HTTP Range 请求，实现边下载边播放（秒播）
	if api.conf != nil && api.conf.Server.Recording.StorageDir != "" {
		slog.Info("注册录像静态文件服务", "path", "/static/recordings", "dir", api.conf.Server.Recording.StorageDir)
		g.Static("/static/recordings", api.conf.Server.Recording.StorageDir)
	}
}

// findRecordings 分页查询录像片段列表
func (a RecordingAPI) findRecordings(c *gin.Context, in *catalog.FindSegmentInput) (any, error) {
	items, total, err := a.catalogCore.FindSegments(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// getDates 某通道有录像的日期列表，供日历角标
func (a RecordingAPI) getDates(c *gin.Context, in *catalog.TimelineInput) (any, error) {
	dates, err := a.catalogCore.AvailableDates(c.Request.Context(), in.CameraID)
	return gin.H{"items": dates}, err
}

type timelineSegmentOutput struct {
	ID             int64   `json:"id"`
	StartedAt      string  `json:"started_at"`
	EndedAt        string  `json:"ended_at"`
	Duration       float64 `json:"duration"`
	Locator        string  `json:"locator"`
	OffsetFraction float64 `json:"offset_fraction"`
	WidthFraction  float64 `json:"width_fraction"`
}

type timelineGapOutput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type timelineOutput struct {
	RangeStart string                  `json:"range_start"`
	RangeEnd   string                  `json:"range_end"`
	Segments   []timelineSegmentOutput `json:"segments"`
	Gaps       []timelineGapOutput     `json:"gaps"`
}

// getTimeline 获取某通道某天的时间轴投影
// 几何（偏移与宽度比例）在服务端算好，客户端只负责渲染
func (a RecordingAPI) getTimeline(c *gin.Context, in *catalog.TimelineInput) (*timelineOutput, error) {
	tl, err := a.catalogCore.BuildTimeline(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}

	out := timelineOutput{
		Segments: make([]timelineSegmentOutput, 0, len(tl.Segments)),
		Gaps:     make([]timelineGapOutput, 0, 4),
	}
	if tl.IsEmpty() {
		return &out, nil
	}

	out.RangeStart = tl.RangeStart.Format(time.RFC3339)
	out.RangeEnd = tl.RangeEnd.Format(time.RFC3339)
	for _, seg := range tl.Segments {
		out.Segments = append(out.Segments, timelineSegmentOutput{
			ID:             seg.ID,
			StartedAt:      seg.Start.Format(time.RFC3339),
			EndedAt:        seg.End().Format(time.RFC3339),
			Duration:       seg.Duration.Seconds(),
			Locator:        seg.Locator,
			OffsetFraction: seg.OffsetFraction,
			WidthFraction:  seg.WidthFraction,
		})
	}
	for _, gap := range tl.Gaps() {
		out.Gaps = append(out.Gaps, timelineGapOutput{
			Start: gap.Start.Format(time.RFC3339),
			End:   gap.End.Format(time.RFC3339),
		})
	}
	return &out, nil
}

type resolveOutput struct {
	Miss    bool                   `json:"miss"`
	Index   int                    `json:"index,omitempty"`
	Segment *timelineSegmentOutput `json:"segment,omitempty"`
}

// resolveTimestamp 把时间戳解析为片段下标
// 未命中不是错误，返回 miss=true，由前端决定提示还是就近跳转
func (a RecordingAPI) resolveTimestamp(c *gin.Context, in *catalog.ResolveInput) (*resolveOutput, error) {
	tl, err := a.catalogCore.BuildTimeline(c.Request.Context(), &in.TimelineInput)
	if err != nil {
		return nil, err
	}

	target := time.UnixMilli(in.TsMs)
	var (
		index int
		ok    bool
	)
	switch in.Direction {
	case "":
		index, ok = tl.Resolve(target)
	case "forward":
		index, ok = tl.ResolveNearest(target, timeline.DirectionForward)
	case "backward":
		index, ok = tl.ResolveNearest(target, timeline.DirectionBackward)
	case "either":
		index, ok = tl.ResolveNearest(target, timeline.DirectionEither)
	default:
		return nil, reason.ErrBadRequest.Withf("direction[%s] 不支持", in.Direction)
	}
	if !ok {
		return &resolveOutput{Miss: true}, nil
	}

	seg := tl.Segments[index]
	return &resolveOutput{
		Index: index,
		Segment: &timelineSegmentOutput{
			ID:             seg.ID,
			StartedAt:      seg.Start.Format(time.RFC3339),
			EndedAt:        seg.End().Format(time.RFC3339),
			Duration:       seg.Duration.Seconds(),
			Locator:        seg.Locator,
			OffsetFraction: seg.OffsetFraction,
			WidthFraction:  seg.WidthFraction,
		},
	}, nil
}

// getMonthlyStats 获取月度录像统计
func (a RecordingAPI) getMonthlyStats(c *gin.Context, in *catalog.MonthlyStatsInput) (*catalog.MonthlyStatsOutput, error) {
	return a.catalogCore.GetMonthlyStats(c.Request.Context(), in)
}

type getProgressInput struct {
	Duration int   `form:"duration"` // 名义时长（秒），缺省用配置值
	NowMs    int64 `form:"now_ms"`   // 参考时刻（毫秒时间戳），缺省用服务端当前时间
}

type getProgressOutput struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	NominalSeconds int     `json:"nominal_seconds"`
	Fraction       float64 `json:"fraction"`
}

// getProgress 当前正在写入片段的录制进度
// 按共享纪元做相位近似，见 timeline.Progress 的说明
func (a RecordingAPI) getProgress(_ *gin.Context, in *getProgressInput) (*getProgressOutput, error) {
	seconds := in.Duration
	if seconds <= 0 {
		seconds = a.catalogCore.SegmentSeconds()
	}
	now := time.Now()
	if in.NowMs > 0 {
		now = time.UnixMilli(in.NowMs)
	}

	elapsed, fraction := timeline.Progress(now, time.Duration(seconds)*time.Second, time.Unix(0, 0))
	return &getProgressOutput{
		ElapsedSeconds: elapsed.Seconds(),
		NominalSeconds: seconds,
		Fraction:       fraction,
	}, nil
}

// importOrphans 扫描存储目录，把数据库里没有的 MP4 文件补录进目录
func (a RecordingAPI) importOrphans(c *gin.Context, _ *struct{}) (*catalog.ImportResult, error) {
	return a.catalogCore.ImportOrphans(c.Request.Context())
}

// addSegment 录制管线片段封口回调
func (a RecordingAPI) addSegment(c *gin.Context, in *catalog.AddSegmentInput) (*catalog.Segment, error) {
	return a.catalogCore.AddSegment(c.Request.Context(), in)
}

func (a RecordingAPI) getRecording(c *gin.Context, _ *struct{}) (*catalog.Segment, error) {
	segmentID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.catalogCore.GetSegment(c.Request.Context(), segmentID)
}

func (a RecordingAPI) delRecording(c *gin.Context, _ *struct{}) (*catalog.Segment, error) {
	segmentID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.catalogCore.DelSegment(c.Request.Context(), segmentID)
}

// downloadRecording 下载录像文件
func (a RecordingAPI) downloadRecording(c *gin.Context) {
	segmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "invalid recording id"})
		return
	}

	seg, err := a.catalogCore.GetSegment(c.Request.Context(), segmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	filePath := a.catalogCore.GetFullPath(seg.Path)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "recording file not found"})
		return
	}

	fileName := filepath.Base(filePath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.File(filePath)
}

// channelPlaylist 生成 HLS m3u8 播放列表
// 根据通道 ID 和时间范围，动态生成包含多个 MP4 片段的 m3u8 文件
// 路径: /recordings/channels/:cid/index.m3u8?start_ms=xxx&end_ms=xxx&token=xxx
func (a RecordingAPI) channelPlaylist(c *gin.Context) {
	cid := c.Param("cid")
	if cid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "cid is required"})
		return
	}

	startMs, _ := strconv.ParseInt(c.Query("start_ms"), 10, 64)
	endMs, _ := strconv.ParseInt(c.Query("end_ms"), 10, 64)
	token := c.Query("token")

	if startMs <= 0 || endMs <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "start_ms and end_ms are required"})
		return
	}

	segments, _, err := a.catalogCore.FindSegments(c.Request.Context(), &catalog.FindSegmentInput{
		CameraID:    cid,
		PagerFilter: web.PagerFilter{Page: 1, Size: 10000},
		DateFilter:  web.DateFilter{StartMs: startMs, EndMs: endMs},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	if len(segments) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "no recordings found in time range"})
		return
	}

	content := a.generatePlaylist(segments, token)
	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.Header("Cache-Control", "no-cache")
	c.String(http.StatusOK, content)
}

// generatePlaylist 根据片段列表生成 m3u8 播放列表（每个 MP4 URL 带 token）
func (a RecordingAPI) generatePlaylist(segments []*catalog.Segment, token string) string {
	count := len(segments)
	if count == 0 {
		return ""
	}

	// winSize=0 表示 VOD，不使用滑动窗口
	pl, err := m3u8.NewMediaPlaylist(0, uint(count))
	if err != nil {
		return ""
	}
	pl.MediaType = m3u8.VOD

	// 片段按开始时间升序排列
	sorted := make([]*catalog.Segment, len(segments))
	copy(sorted, segments)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].StartedAt.After(sorted[j].StartedAt.Time) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	// 录制管线产出的 fMP4 每个文件 DTS 都从 0 开始，必须在片段间添加
	// DISCONTINUITY 告诉 HLS.js 重置解码器，避免 DTS 不连续导致的解析错误
	// URL 用相对路径，无论通过代理还是直接访问都能正常工作
	for i, seg := range sorted {
		if i > 0 {
			pl.SetDiscontinuity()
		}

		relativePath := strings.TrimPrefix(seg.Path, "/")
		var uri string
		if token != "" {
			uri = fmt.Sprintf("/static/recordings/%s?token=%s", relativePath, token)
		} else {
			uri = fmt.Sprintf("/static/recordings/%s", relativePath)
		}
		_ = pl.Append(uri, seg.Duration, "")
	}

	// 关闭播放列表，添加 #EXT-X-ENDLIST 标签
	pl.Close()
	return pl.String()
}
