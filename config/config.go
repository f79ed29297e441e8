package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" or "sql"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type GameConfig struct {
	MaxPlayers  int           `mapstructure:"max_players"`
	RoomIdleTTL time.Duration `mapstructure:"room_idle_ttl"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("game.max_players", 8)
	viper.SetDefault("game.room_idle_ttl", 30*time.Minute)

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// Run on defaults and environment variables when no file is present.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
