// Package config loads server settings from the environment with viper.
// The only documented knob is PORT; the rest have defaults that suit a
// single-process deployment behind a reverse proxy.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the server binary needs at startup.
type Config struct {
	Port           string
	StaticDir      string
	AllowedOrigins string
	LogLevel       string
	MaxConnsPerIP  int
	MsgRatePerSec  int
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", "3000")
	v.SetDefault("static_dir", "./web")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_conns_per_ip", 4)
	v.SetDefault("msg_rate_per_sec", 120)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return Config{
		Port:           v.GetString("port"),
		StaticDir:      v.GetString("static_dir"),
		AllowedOrigins: v.GetString("allowed_origins"),
		LogLevel:       v.GetString("log_level"),
		MaxConnsPerIP:  v.GetInt("max_conns_per_ip"),
		MsgRatePerSec:  v.GetInt("msg_rate_per_sec"),
	}, nil
}

// OriginPatterns splits the comma-separated allowed origins list.
func (c Config) OriginPatterns() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
