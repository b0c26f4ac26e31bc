package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_TARGET")); v != "" {
		cfg.Connection.Target = v
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_TRANSPORT")); v != "" {
		cfg.Connection.Transport = v
	}
	if d, ok := envDuration("REMOTEFLOW_DIAL_TIMEOUT"); ok {
		cfg.Connection.DialTimeout = d
	}
	if d, ok := envDuration("REMOTEFLOW_CALL_TIMEOUT"); ok {
		cfg.Connection.CallTimeout = d
	}
	if d, ok := envDuration("REMOTEFLOW_RELEASE_TIMEOUT"); ok {
		cfg.Connection.ReleaseTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_TLS_CA_FILE")); v != "" {
		cfg.Connection.TLS.CAFile = expandHomeDir(v)
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_TLS_CLIENT_CERT")); v != "" {
		cfg.Connection.TLS.ClientCert = expandHomeDir(v)
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_TLS_CLIENT_KEY")); v != "" {
		cfg.Connection.TLS.ClientKey = expandHomeDir(v)
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_TLS_SERVER_NAME")); v != "" {
		cfg.Connection.TLS.ServerName = v
	}
	if val, ok := envBool("REMOTEFLOW_TLS_INSECURE_SKIP_VERIFY"); ok {
		cfg.Connection.TLS.InsecureSkipVerify = val
	}

	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_LOG_FORMAT")); v != "" {
		cfg.Logging.Format = v
	}

	if val, ok := envBool("REMOTEFLOW_METRICS"); ok {
		cfg.Telemetry.MetricsEnabled = val
	}
	if val, ok := envBool("REMOTEFLOW_TRACING"); ok {
		cfg.Telemetry.Tracing.Enabled = val
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_NATS_URL")); v != "" {
		cfg.Telemetry.NATS.URL = v
		cfg.Telemetry.NATS.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("REMOTEFLOW_NATS_SUBJECT")); v != "" {
		cfg.Telemetry.NATS.Subject = v
	}
}

func envBool(key string) (bool, bool) {
	val := os.Getenv(key)
	if val == "" {
		return false, false
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// envDuration accepts Go durations ("750ms") or bare seconds ("30").
func envDuration(key string) (time.Duration, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(val); err == nil && d >= 0 {
		return d, true
	}
	if n, err := strconv.Atoi(val); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
