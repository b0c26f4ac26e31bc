package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
)

// Transports understood by the session layer.
const (
	TransportGRPC    = "grpc"
	TransportConnect = "connect"
)

// Default configuration values exported for documentation and validation
const (
	DefaultTarget          = "127.0.0.1:50052"
	DefaultTransport       = TransportGRPC
	DefaultDialTimeout     = 10 * time.Second
	DefaultMaxMessageBytes = 64 << 20
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultServiceName     = "remoteflow"
	DefaultNATSSubject     = "remoteflow.events"
	DefaultEngineListen    = "127.0.0.1:50052"

	configDirName  = ".remoteflow"
	configFileName = "config.yaml"
)

// Config represents the complete remoteflow configuration
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Engine     EngineConfig     `yaml:"engine"`
}

// ConnectionConfig describes how to reach the remote workflow service.
type ConnectionConfig struct {
	Target    string `yaml:"target"`
	Transport string `yaml:"transport"`

	// DialTimeout bounds session establishment only.
	DialTimeout time.Duration `yaml:"dial_timeout"`
	// CallTimeout is applied to each remote call when non-zero. Zero leaves
	// the deadline to the caller's context.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// ReleaseTimeout bounds best-effort deletes issued from Close. Zero means
	// no deadline.
	ReleaseTimeout time.Duration `yaml:"release_timeout"`

	MaxMessageBytes int       `yaml:"max_message_bytes"`
	TLS             TLSConfig `yaml:"tls"`
}

// TLSConfig enables transport security when any field is set.
type TLSConfig struct {
	CAFile             string `yaml:"ca_file"`
	ClientCert         string `yaml:"client_cert"`
	ClientKey          string `yaml:"client_key"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Enabled reports whether any TLS setting was provided.
func (t TLSConfig) Enabled() bool {
	return strings.TrimSpace(t.CAFile) != "" ||
		strings.TrimSpace(t.ClientCert) != "" ||
		strings.TrimSpace(t.ClientKey) != "" ||
		strings.TrimSpace(t.ServerName) != "" ||
		t.InsecureSkipVerify
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// TelemetryConfig groups metrics, tracing, and event forwarding.
type TelemetryConfig struct {
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	Tracing        TracingConfig `yaml:"tracing"`
	NATS           NATSConfig    `yaml:"nats"`
}

// TracingConfig controls the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// NATSConfig forwards lifecycle events to NATS subjects.
type NATSConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url"`
	Subject        string        `yaml:"subject"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// EngineConfig configures the in-memory dev engine.
type EngineConfig struct {
	Listen string `yaml:"listen"`
	Admin  string `yaml:"admin"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Target:          DefaultTarget,
			Transport:       DefaultTransport,
			DialTimeout:     DefaultDialTimeout,
			MaxMessageBytes: DefaultMaxMessageBytes,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				ServiceName: DefaultServiceName,
			},
			NATS: NATSConfig{
				Subject:        DefaultNATSSubject,
				ConnectTimeout: 5 * time.Second,
			},
		},
		Engine: EngineConfig{
			Listen: DefaultEngineListen,
		},
	}
}

// Load loads configuration from default locations with proper precedence
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, configDirName, configFileName)
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, rferrors.Wrap(err, rferrors.ErrCodeConfigLoad, "loading user config").
				WithContext("path", userConfigPath)
		}
	}

	projectConfigPath := filepath.Join(".", configDirName, configFileName)
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, rferrors.Wrap(err, rferrors.ErrCodeConfigLoad, "loading project config").
			WithContext("path", projectConfigPath)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	path = expandHomeDir(path)
	if err := loadAndMerge(cfg, path); err != nil {
		return nil, rferrors.Wrap(err, rferrors.ErrCodeConfigLoad, "loading config").
			WithContext("path", path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Connection.Target) == "" {
		return invalid("connection.target is required")
	}

	switch c.Transport() {
	case TransportGRPC, TransportConnect:
	default:
		return invalid(fmt.Sprintf("invalid transport: %s (valid: grpc, connect)", c.Connection.Transport))
	}

	if c.Connection.DialTimeout < 0 || c.Connection.CallTimeout < 0 || c.Connection.ReleaseTimeout < 0 {
		return invalid("connection timeouts must not be negative")
	}
	if c.Connection.MaxMessageBytes < 0 {
		return invalid("connection.max_message_bytes must not be negative")
	}

	tls := c.Connection.TLS
	if (strings.TrimSpace(tls.ClientCert) == "") != (strings.TrimSpace(tls.ClientKey) == "") {
		return invalid("connection.tls.client_cert and client_key must be set together")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "text", "json":
	default:
		return invalid(fmt.Sprintf("invalid log format: %s (valid: text, json)", c.Logging.Format))
	}

	if c.Telemetry.NATS.Enabled && strings.TrimSpace(c.Telemetry.NATS.Subject) == "" {
		return invalid("telemetry.nats.subject is required when nats is enabled")
	}

	return nil
}

// Transport returns the normalized transport name.
func (c *Config) Transport() string {
	if c == nil {
		return DefaultTransport
	}
	t := strings.ToLower(strings.TrimSpace(c.Connection.Transport))
	if t == "" {
		return DefaultTransport
	}
	return t
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, invalid(fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", level))
	}
}

func invalid(msg string) error {
	return rferrors.New(rferrors.ErrCodeConfigInvalid, msg).
		WithRemediation("fix the value in the config file or the matching REMOTEFLOW_* variable")
}
