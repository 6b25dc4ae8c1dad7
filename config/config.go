// Package config manages bskdash configuration from TOML files and
// BSKDASH_* environment variables via Viper.
package config

// Config represents the core bskdash configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig configures the bskdash web server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JSONLogs       bool     `mapstructure:"json_logs"`
}

// DataConfig configures where dataset snapshots are sourced from
type DataConfig struct {
	// Backend selects the snapshot source: "file" or "sql"
	Backend string `mapstructure:"backend"`
	// Dir overrides the flat-file data directory. Empty means the
	// resolver walks the default candidate list.
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Backend selection values for DataConfig.Backend.
const (
	BackendFile = "file"
	BackendSQL  = "sql"
)

// DefaultServerPort is used when no port is configured.
const DefaultServerPort = 8000

// DataDirCandidates is the ordered fallback list the location resolver walks
// when no explicit data directory is configured. Deployment-specific absolute
// paths come last.
var DataDirCandidates = []string{
	"data",
	"../data",
	"../../data",
	"/opt/render/project/src/data",
}
