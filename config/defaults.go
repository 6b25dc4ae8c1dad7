package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.json_logs", false)

	// Data defaults
	v.SetDefault("data.backend", BackendFile)
	v.SetDefault("data.dir", "")

	// Database defaults
	v.SetDefault("database.path", "bskdash.db")
}
