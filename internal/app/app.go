package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gowvp/lynx/internal/conf"
)

// Run 装配依赖并启动 http 服务
// 返回的函数用于优雅退出，先停服务再释放资源
func Run(bc *conf.Bootstrap, log *slog.Logger) (func(), error) {
	handler, cleanup, err := wireApp(bc, log)
	if err != nil {
		return nil, err
	}

	srv := http.Server{
		Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("http server started", "port", bc.Server.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server exited", "err", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("http server shutdown", "err", err)
		}
		cleanup()
	}, nil
}
