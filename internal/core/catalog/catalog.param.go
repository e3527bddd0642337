package catalog

import (
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
)

type FindCameraInput struct {
	web.PagerFilter
	Name   string `form:"name"`   // 名称模糊过滤
	Status string `form:"status"` // 按状态过滤
}

type AddCameraInput struct {
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	IP         string `json:"ip"`
	Port       int    `json:"port"`
	StreamPath string `json:"stream_path"`
	RTSPUrl    string `json:"rtsp_url"`
}

type EditCameraInput struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	IP         string `json:"ip"`
	Port       int    `json:"port"`
	StreamPath string `json:"stream_path"`
	RTSPUrl    string `json:"rtsp_url"`
}

type FindSegmentInput struct {
	web.PagerFilter
	web.DateFilter
	CameraID string `form:"camera_id"`
	Day      string `form:"date"` // YYYY-MM-DD
}

// AddSegmentInput 录制管线在片段文件封口后回调写入
type AddSegmentInput struct {
	CameraID  string   `json:"camera_id" binding:"required"`
	Filename  string   `json:"filename" binding:"required"`
	Path      string   `json:"path"`
	Size      int64    `json:"size"`
	StartedAt orm.Time `json:"started_at"`
	EndedAt   orm.Time `json:"ended_at"`
	Duration  float64  `json:"duration"` // 名义时长（秒）
}

// TimelineInput 时间轴查询参数
type TimelineInput struct {
	CameraID string `form:"camera_id"`
	Day      string `form:"date"` // YYYY-MM-DD
}

// ResolveInput 时间戳解析参数
type ResolveInput struct {
	TimelineInput
	TsMs      int64  `form:"ts_ms" binding:"required"` // 目标时间（毫秒时间戳）
	Direction string `form:"direction"` // 空为严格命中；forward/backward/either 为最近匹配
}

// MonthlyStatsInput 月度统计查询参数
type MonthlyStatsInput struct {
	CameraID string `form:"camera_id"` // 可选，不传则查所有通道
	Year     int    `form:"year"`
	Month    int    `form:"month"`
}

// MonthlyStatsOutput 月度统计输出
type MonthlyStatsOutput struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Days     int    `json:"days"`
	HasVideo string `json:"has_video"` // 位图字符串，第 n 位为 1 表示第 n 天有录像
}
