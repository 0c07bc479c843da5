package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type WikipediaConfig struct {
	ApiBaseUrl     string        `yaml:"apiBaseUrl" validate:"required|fullUrl"`
	RestBaseUrl    string        `yaml:"restBaseUrl" validate:"required|fullUrl"`
	UserAgent      string        `yaml:"userAgent" validate:"required"`
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"required|min:1"`
	MaxAttempts    int           `yaml:"maxAttempts"`
}

type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Size            int           `yaml:"size"`
	Dir             string        `yaml:"dir" validate:"required|unixPath"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

type SnapshotConfig struct {
	Dir string `yaml:"dir" validate:"required|unixPath"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server          `yaml:"webServer"`
	Logger    LoggerConfig    `yaml:"logger"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Cache     CacheConfig     `yaml:"cache"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}
