package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration 配置文件中以秒为单位的时长
type Duration int

func (d Duration) Duration() time.Duration {
	return time.Duration(d) * time.Second
}

// Bootstrap 应用启动配置
type Bootstrap struct {
	ConfigPath   string `toml:"-"`
	BuildVersion string `toml:"-"`

	Debug  bool   `toml:"debug"`
	Server Server `toml:"server"`
	Media  Media  `toml:"media"`
	Data   Data   `toml:"data"`
}

type Server struct {
	Username string `toml:"username"`
	Password string `toml:"password"`

	HTTP      HTTP            `toml:"http"`
	Recording ServerRecording `toml:"recording"`
}

type HTTP struct {
	Port      int    `toml:"port"`
	JwtSecret string `toml:"jwt_secret"`
	PProf     PProf  `toml:"pprof"`
}

type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"`
}

// ServerRecording 录像存储与时间轴相关配置
type ServerRecording struct {
	Disabled           bool    `toml:"disabled"`
	StorageDir         string  `toml:"storage_dir"`
	SegmentSeconds     int     `toml:"segment_seconds"`      // 切片名义时长，默认 300
	RetainDays         int     `toml:"retain_days"`          // 保留天数，0 表示不按天清理
	DiskUsageThreshold float64 `toml:"disk_usage_threshold"` // 磁盘使用率阈值（百分比）
}

// Media 外部媒体服务，负责按文件名提供片段字节流
type Media struct {
	IP       string `toml:"ip"`
	HTTPPort int    `toml:"http_port"`
	Secret   string `toml:"secret"`
}

// URL 媒体服务 HTTP API 基地址
func (m Media) URL() string {
	return fmt.Sprintf("http://%s:%d", m.IP, m.HTTPPort)
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	Dsn             string   `toml:"dsn"`
	MaxIdleConns    int32    `toml:"max_idle_conns"`
	MaxOpenConns    int32    `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// ReadConfig 读取配置文件，文件不存在时写出默认配置再返回
func ReadConfig(path string) (*Bootstrap, error) {
	bc := defaultBootstrap()
	bc.ConfigPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := WriteConfig(bc, path); err != nil {
			return nil, err
		}
		return bc, nil
	}

	if err := toml.Unmarshal(data, bc); err != nil {
		return nil, err
	}
	return bc, nil
}

// WriteConfig 把配置写回文件，用于凭据修改等持久化场景
func WriteConfig(bc *Bootstrap, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(bc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func defaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: Server{
			HTTP: HTTP{Port: 8080},
			Recording: ServerRecording{
				StorageDir:         "recordings",
				SegmentSeconds:     300,
				RetainDays:         7,
				DiskUsageThreshold: 90,
			},
		},
		Media: Media{
			IP:       "127.0.0.1",
			HTTPPort: 8081,
		},
		Data: Data{
			Database: Database{
				Dsn:             "lynx.db",
				MaxIdleConns:    10,
				MaxOpenConns:    100,
				ConnMaxLifetime: 3600,
				SlowThreshold:   1,
			},
		},
	}
}
