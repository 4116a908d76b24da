package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	StaticDir string `mapstructure:"static_dir"`
	// 生成房间二维码时使用的前端地址，例如 https://example.com/room
	PublicURL string `mapstructure:"public_url"`

	Game      GameConfig      `mapstructure:"game"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
}

// 各阶段的默认时长，单位秒
type GameConfig struct {
	PromptSelectionTime int `mapstructure:"prompt_selection_time"`
	DrawingTime         int `mapstructure:"drawing_time"`
	SubmittingTime      int `mapstructure:"submitting_time"`
	VotingTime          int `mapstructure:"voting_time"`
	MaxPhaseTime        int `mapstructure:"max_phase_time"`
}

type WebsocketConfig struct {
	MaxMessageBytes int64   `mapstructure:"max_message_bytes"`
	SendBuffer      int     `mapstructure:"send_buffer"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateBurst       int     `mapstructure:"rate_burst"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig("")
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5000)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "")
	v.SetDefault("public_url", "")

	v.SetDefault("game.prompt_selection_time", 30)
	v.SetDefault("game.drawing_time", 60)
	v.SetDefault("game.submitting_time", 45)
	v.SetDefault("game.voting_time", 30)
	v.SetDefault("game.max_phase_time", 600)

	// 画布以 dataURL 形式传输，单帧可能较大
	v.SetDefault("websocket.max_message_bytes", 4<<20)
	v.SetDefault("websocket.send_buffer", 64)
	v.SetDefault("websocket.rate_limit", 30)
	v.SetDefault("websocket.rate_burst", 60)
}

// InitConfig 加载配置。path 为空时在当前目录查找 app_config.json，
// 文件不存在时仅使用默认值与环境变量
func InitConfig(path string) *AppConfig {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SKETCHBLUFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app_config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("加载配置失败: %w", err))
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	if err := config.validate(); err != nil {
		panic(fmt.Errorf("配置无效: %w", err))
	}

	return &config
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("端口超出范围: %d", c.Port)
	}

	g := c.Game
	for name, secs := range map[string]int{
		"prompt_selection_time": g.PromptSelectionTime,
		"drawing_time":          g.DrawingTime,
		"submitting_time":       g.SubmittingTime,
		"voting_time":           g.VotingTime,
	} {
		if secs <= 0 || secs > g.MaxPhaseTime {
			return fmt.Errorf("game.%s 必须在 1 到 %d 之间", name, g.MaxPhaseTime)
		}
	}

	if c.Websocket.SendBuffer <= 0 {
		return errors.New("websocket.send_buffer 必须大于 0")
	}

	return nil
}
