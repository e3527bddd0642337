package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ixugo/goddd/pkg/orm"
)

// 摄像机状态
const (
	StatusOffline    = "offline"
	StatusOnline     = "online"
	StatusError      = "error"
	StatusConnecting = "connecting"
)

// 摄像机接入类型
const (
	TypeRTSP  = "RTSP"
	TypeONVIF = "ONVIF"
	TypeHTTP  = "HTTP"
)

// Camera 摄像机注册信息
// 拉流与编码由外部录制管线负责，这里只维护注册表
type Camera struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:name" json:"name"`
	Type string `gorm:"column:type" json:"type"` // RTSP/ONVIF/HTTP

	Username   string `gorm:"column:username" json:"username"`
	Password   string `gorm:"column:password" json:"-"`
	IP         string `gorm:"column:ip" json:"ip"`
	Port       int    `gorm:"column:port" json:"port"`
	StreamPath string `gorm:"column:stream_path" json:"stream_path"`
	RTSPUrl    string `gorm:"column:rtsp_url" json:"rtsp_url"`

	IsStreaming bool   `gorm:"column:is_streaming" json:"is_streaming"`
	IsRecording bool   `gorm:"column:is_recording" json:"is_recording"`
	Status      string `gorm:"column:status" json:"status"`

	LastConnectedAt *orm.Time `gorm:"column:last_connected_at" json:"last_connected_at"`
	CreatedAt       orm.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       orm.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (*Camera) TableName() string {
	return "cameras"
}

// BuildRTSPUrl 由独立的连接字段拼出 RTSP 地址，凭据做 URL 转义
func (c *Camera) BuildRTSPUrl() string {
	if c.IP == "" {
		return c.RTSPUrl
	}

	var auth string
	if c.Username != "" {
		auth = url.QueryEscape(c.Username)
		if c.Password != "" {
			auth += ":" + url.QueryEscape(c.Password)
		}
		auth += "@"
	}

	port := c.Port
	if port == 0 {
		port = 554
	}
	path := c.StreamPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("rtsp://%s%s:%d%s", auth, c.IP, port, path)
}

// Segment 一段已完成落盘的录像切片，由录制管线在文件封口时写入，入库后不可变
// 以 started_at 全序排列；同通道出现重叠视为数据完整性错误
type Segment struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	CameraID string `gorm:"column:camera_id;index:idx_segments_camera_day" json:"camera_id"`

	Filename string `gorm:"column:filename;uniqueIndex" json:"filename"` // 相对存储目录的定位符
	Path     string `gorm:"column:path" json:"path"`
	Size     int64  `gorm:"column:size" json:"size"`

	StartedAt orm.Time `gorm:"column:started_at;index" json:"started_at"`
	EndedAt   orm.Time `gorm:"column:ended_at" json:"ended_at"`
	Duration  float64  `gorm:"column:duration" json:"duration"` // 名义时长（秒）

	// 录制日期冗余存储，便于按天过滤与可用日期枚举
	Day string `gorm:"column:day;index:idx_segments_camera_day" json:"day"`

	DeleteFlag bool     `gorm:"column:delete_flag" json:"delete_flag"` // 待删除标记（即将被保留策略清理）
	CreatedAt  orm.Time `gorm:"column:created_at" json:"created_at"`
}

func (*Segment) TableName() string {
	return "segments"
}
