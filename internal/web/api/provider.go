package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/lynx/internal/conf"
	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/gowvp/lynx/internal/data"
	"github.com/gowvp/lynx/internal/core/catalog/store/catalogdb"
	"github.com/gowvp/lynx/internal/core/playback"
	"github.com/gowvp/lynx/pkg/msrv"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/domain/uniqueid/store/uniqueiddb"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

var (
	ProviderVersionSet = wire.NewSet(versionapi.NewVersionCore)
	ProviderSet        = wire.NewSet(
		wire.Struct(new(Usecase), "*"),
		NewHTTPHandler,
		versionapi.New,
		NewUniqueID,
		NewCatalogStore, NewCatalogCore, NewCameraAPI, NewRecordingAPI,
		NewMediaEngine, NewPlaybackManager, NewPlaybackAPI,
		NewUserAPI,
	)
)

type Usecase struct {
	Conf    *conf.Bootstrap
	DB      *gorm.DB
	Version versionapi.API

	UniqueID     uniqueid.Core
	CameraAPI    CameraAPI
	RecordingAPI RecordingAPI
	PlaybackAPI  PlaybackAPI
	UserAPI      UserAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if cfg.HTTP.JwtSecret == "" {
		uc.Conf.Server.HTTP.JwtSecret = orm.GenerateRandomString(32)
	}
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	uc.Version.RecordVersion()
	return g
}

// NewUniqueID 唯一 id 生成器
func NewUniqueID(db *gorm.DB) uniqueid.Core {
	return uniqueid.NewCore(uniqueiddb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()), 5)
}

// NewCatalogStore 创建录像目录存储层
func NewCatalogStore(db *gorm.DB) catalog.Storer {
	store := catalogdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
	// 旧版本数据迁移，失败不阻塞启动
	if err := data.MigrateLegacyRecordings(db); err != nil {
		slog.Warn("旧录像数据迁移失败", "err", err)
	}
	return store
}

// NewCatalogCore 创建录像目录核心服务
func NewCatalogCore(store catalog.Storer, uni uniqueid.Core, cfg *conf.Bootstrap) catalog.Core {
	core := catalog.NewCore(store, uni, catalog.WithConfig(&cfg.Server.Recording))

	// 保留策略清理协程
	if !cfg.Server.Recording.Disabled {
		go core.StartCleanupWorker()
	}
	return core
}

// NewMediaEngine 创建流媒体服务客户端
func NewMediaEngine(cfg *conf.Bootstrap) msrv.Engine {
	return msrv.NewEngine().SetConfig(msrv.Config{
		URL:    cfg.Media.URL(),
		Secret: cfg.Media.Secret,
	})
}

// NewPlaybackManager 创建回放会话管理器
func NewPlaybackManager(engine msrv.Engine) *playback.Manager {
	return playback.NewManager(&engine)
}
