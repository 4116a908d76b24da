package main

import (
	"sketchbluff-be/internal/api/http"
	"sketchbluff-be/internal/config"
	"sketchbluff-be/internal/logger"
	"sketchbluff-be/internal/service"
	"sketchbluff-be/internal/state"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

var CLI struct {
	Config   string `help:"Path to the JSON configuration file." short:"c" type:"path"`
	LogLevel string `help:"Override the configured log level (debug, info, warn, error)." name:"log-level"`
	Port     int    `help:"Override the configured listen port." short:"p"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("sketchbluff-be"),
		kong.Description("Room and game server for a drawing and bluffing party game."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// 加载配置，命令行参数优先
	cfg := config.InitConfig(CLI.Config)
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	if CLI.Port != 0 {
		cfg.Port = CLI.Port
	}

	// 初始化日志器
	log := logger.InitLogger(cfg.LogLevel)
	defer log.Sync()

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		service.NewRoomService(cfg),
	)
	defer appState.Close()

	log.Info(
		"服务启动",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	// 启动服务器
	if err := http.RunServer(appState); err != nil {
		log.Error("服务器异常退出", zap.Error(err))
	}
}
