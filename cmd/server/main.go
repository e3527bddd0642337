package main

import (
	"expvar"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gowvp/lynx/internal/app"
	"github.com/gowvp/lynx/internal/conf"
	"github.com/ixugo/goddd/pkg/system"
)

// 构建时由 -ldflags 注入
var (
	buildVersion = "dev"
	gitBranch    = "dev"
	gitHash      = "dev"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "conf", filepath.Join(system.Getwd(), "configs", "config.toml"), "配置文件路径")
	flag.Parse()

	expvar.NewString("git_branch").Set(gitBranch)
	expvar.NewString("git_hash").Set(gitHash)

	bc, err := conf.ReadConfig(configPath)
	if err != nil {
		slog.Error("读取配置失败", "path", configPath, "err", err)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion

	level := slog.LevelInfo
	if bc.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cleanup, err := app.Run(bc, log)
	if err != nil {
		slog.Error("服务启动失败", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.Info("server running", "version", buildVersion, "config", configPath)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	slog.Info("server stopping")
}
