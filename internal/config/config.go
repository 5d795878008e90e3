package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	TCPPort  int    `mapstructure:"tcp_port"`
	HTTPPort int    `mapstructure:"http_port"`
	LogLevel string `mapstructure:"log_level"`

	WordsFile string `mapstructure:"words_file"`

	MaxRounds         int    `mapstructure:"max_rounds"`
	RoundTime         int    `mapstructure:"round_time"`
	RestTime          int    `mapstructure:"rest_time"`
	DrawerLeavePolicy string `mapstructure:"drawer_leave_policy"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("tcp_port", 5555)
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("words_file", "words.txt")
	v.SetDefault("max_rounds", 3)
	v.SetDefault("round_time", 60)
	v.SetDefault("rest_time", 10)
	v.SetDefault("drawer_leave_policy", "rest")

	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	return &config
}
