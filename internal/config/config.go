package config

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	HTTPAddr        string
	MySQLDSN        string
	MySQLMaxOpen    int
	MySQLMaxIdle    int
	MySQLConnMaxAge time.Duration
	RedisAddr       string
	RedisPoolSize   int
	ShutdownTimeout time.Duration
}

func Load(logger *zap.Logger) *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/retail?parseTime=true")
	viper.SetDefault("MYSQL_MAX_OPEN_CONNS", 50)
	viper.SetDefault("MYSQL_MAX_IDLE_CONNS", 25)
	viper.SetDefault("MYSQL_CONN_MAX_AGE", 5*time.Minute)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_POOL_SIZE", 100)
	viper.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)

	if err := viper.ReadInConfig(); err != nil {
		logger.Info("no config file found, using environment and defaults", zap.Error(err))
	}

	return &Config{
		HTTPAddr:        viper.GetString("HTTP_ADDR"),
		MySQLDSN:        viper.GetString("MYSQL_DSN"),
		MySQLMaxOpen:    viper.GetInt("MYSQL_MAX_OPEN_CONNS"),
		MySQLMaxIdle:    viper.GetInt("MYSQL_MAX_IDLE_CONNS"),
		MySQLConnMaxAge: viper.GetDuration("MYSQL_CONN_MAX_AGE"),
		RedisAddr:       viper.GetString("REDIS_ADDR"),
		RedisPoolSize:   viper.GetInt("REDIS_POOL_SIZE"),
		ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}
