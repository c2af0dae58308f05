// Package config loads server configuration from config.yaml with
// environment overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/finmax/ledger/internal/db"
)

// Config is the full server configuration.
type Config struct {
	Database db.Config
	HTTP     HTTPConfig
	AMQP     AMQPConfig
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
}

// AMQPConfig configures the optional change-event publisher. An empty URL
// disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// Load reads config.yaml from configPath, falling back to defaults plus
// environment overrides (FINMAX_DATABASE_HOST, FINMAX_HTTP_ADDR, ...).
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		AMQP: AMQPConfig{
			Exchange: "finmax.changes",
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("FINMAX")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("http.addr")
	v.BindEnv("amqp.url")
	v.BindEnv("amqp.exchange")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("http.addr") {
		cfg.HTTP.Addr = v.GetString("http.addr")
	}
	if v.IsSet("http.allowed_origins") {
		cfg.HTTP.AllowedOrigins = v.GetStringSlice("http.allowed_origins")
	}
	if v.IsSet("amqp.url") {
		cfg.AMQP.URL = v.GetString("amqp.url")
	}
	if v.IsSet("amqp.exchange") {
		cfg.AMQP.Exchange = v.GetString("amqp.exchange")
	}

	return cfg, nil
}
