package config

import (
	"os"
	"regexp"
	"time"

	"github.com/amoylab/cryptogrammer/pkg/helper"
	"github.com/amoylab/cryptogrammer/pkg/trace"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// ServerConfig represents the session server configuration
	ServerConfig struct {
		Port      int             `yaml:"port"`
		PID       string          `yaml:"pid"`
		Logger    LoggerConfig    `yaml:"logger"`
		Session   SessionConfig   `yaml:"session"`
		Transport TransportConfig `yaml:"transport"`
		Notifier  NotifierConfig  `yaml:"notifier"`
		Metrics   MetricsConfig   `yaml:"metrics"`
		Tracing   trace.Config    `yaml:"tracing"`
		Debug     DebugConfig     `yaml:"debug"`
	}

	// SessionConfig controls session id allocation and idle eviction
	SessionConfig struct {
		ReapInterval  time.Duration `yaml:"reap_interval"`   // how often the reaper sweeps
		IdleTimeout   time.Duration `yaml:"idle_timeout"`    // sessions idle longer than this are evicted
		IDDigits      int           `yaml:"id_digits"`       // session ids are drawn from [0, 10^IDDigits)
		MaxIDAttempts int           `yaml:"max_id_attempts"` // allocation retries before giving up
	}

	// TransportConfig controls the websocket transport
	TransportConfig struct {
		Path           string        `yaml:"path"`
		AllowOrigins   []string      `yaml:"allow_origins"`
		SendQueueSize  int           `yaml:"send_queue_size"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		PongTimeout    time.Duration `yaml:"pong_timeout"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxMessageSize int64         `yaml:"max_message_size"`
	}

	// NotifierConfig represents the configuration for the lifecycle notifier
	NotifierConfig struct {
		Type  string              `yaml:"type"` // none, log, redis or composite (log + redis)
		Redis NotifierRedisConfig `yaml:"redis"`
	}

	// NotifierRedisConfig represents the Redis stream the notifier publishes to
	NotifierRedisConfig struct {
		ClusterType string `yaml:"cluster_type"` // single, sentinel or cluster
		Addr        string `yaml:"addr"`
		MasterName  string `yaml:"master_name"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		Stream      string `yaml:"stream"`
		MaxLen      int64  `yaml:"max_len"`
	}

	// MetricsConfig represents the prometheus metrics configuration
	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Path      string    `yaml:"path"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}

	// DebugConfig holds diagnostics switches
	DebugConfig struct {
		LogBroadcasts bool `yaml:"log_broadcasts"` // log every outbound frame at debug level
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps, e.g., "UTC", default is local
		TimeFormat string `yaml:"time_format"` // time format for log timestamps, default is "2006-01-02 15:04:05"
	}
)

// Defaults for the session and transport sections.
const (
	DefaultPort           = 8080
	DefaultReapInterval   = 60 * time.Second
	DefaultIdleTimeout    = 30 * DefaultReapInterval
	DefaultIDDigits       = 6
	DefaultMaxIDAttempts  = 32
	DefaultWSPath         = "/ws"
	DefaultSendQueueSize  = 64
	DefaultWriteTimeout   = 10 * time.Second
	DefaultPongTimeout    = 60 * time.Second
	DefaultMaxMessageSize = 64 * 1024
	DefaultMetricsPath    = "/metrics"
	DefaultNotifierStream = "cryptogrammer:sessions"
	DefaultNotifierMaxLen = 1000
)

// LoadConfig loads configuration from a YAML file with environment variable support
func LoadConfig(filename string) (*ServerConfig, string, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfgPath := helper.GetCfgPath(filename)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, cfgPath, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, cfgPath, err
	}
	return cfg, cfgPath, nil
}

// Parse decodes YAML content, resolving ${VAR:default} placeholders and
// filling unset fields with defaults.
func Parse(data []byte) (*ServerConfig, error) {
	data = resolveEnv(data)
	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// SetDefaults fills zero values
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	s := &c.Session
	if s.ReapInterval == 0 {
		s.ReapInterval = DefaultReapInterval
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 30 * s.ReapInterval
	}
	if s.IDDigits == 0 {
		s.IDDigits = DefaultIDDigits
	}
	if s.MaxIDAttempts == 0 {
		s.MaxIDAttempts = DefaultMaxIDAttempts
	}

	t := &c.Transport
	if t.Path == "" {
		t.Path = DefaultWSPath
	}
	if t.SendQueueSize == 0 {
		t.SendQueueSize = DefaultSendQueueSize
	}
	if t.WriteTimeout == 0 {
		t.WriteTimeout = DefaultWriteTimeout
	}
	if t.PongTimeout == 0 {
		t.PongTimeout = DefaultPongTimeout
	}
	if t.PingInterval == 0 {
		t.PingInterval = t.PongTimeout * 9 / 10
	}
	if t.MaxMessageSize == 0 {
		t.MaxMessageSize = DefaultMaxMessageSize
	}

	if c.Notifier.Type == "" {
		c.Notifier.Type = "none"
	}
	if c.Notifier.Redis.ClusterType == "" {
		c.Notifier.Redis.ClusterType = "single"
	}
	if c.Notifier.Redis.Stream == "" {
		c.Notifier.Redis.Stream = DefaultNotifierStream
	}
	if c.Notifier.Redis.MaxLen == 0 {
		c.Notifier.Redis.MaxLen = DefaultNotifierMaxLen
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "cryptogrammer"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "cryptogrammer"
	}
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
