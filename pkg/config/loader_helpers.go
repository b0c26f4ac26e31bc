package config

import (
	"os"
	"strings"

	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
	"gopkg.in/yaml.v3"
)

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rferrors.Wrap(err, rferrors.ErrCodeConfigParse, "parsing YAML")
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return rferrors.Wrap(err, rferrors.ErrCodeConfigParse, "parsing YAML")
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Booleans and durations only
// override when the key is present in raw, so an explicit false or 0 wins
// over a default.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	conn := override.Connection
	if strings.TrimSpace(conn.Target) != "" {
		base.Connection.Target = conn.Target
	}
	if strings.TrimSpace(conn.Transport) != "" {
		base.Connection.Transport = conn.Transport
	}
	if fieldSet(raw, "connection", "dial_timeout") {
		base.Connection.DialTimeout = conn.DialTimeout
	}
	if fieldSet(raw, "connection", "call_timeout") {
		base.Connection.CallTimeout = conn.CallTimeout
	}
	if fieldSet(raw, "connection", "release_timeout") {
		base.Connection.ReleaseTimeout = conn.ReleaseTimeout
	}
	if fieldSet(raw, "connection", "max_message_bytes") {
		base.Connection.MaxMessageBytes = conn.MaxMessageBytes
	}
	if conn.TLS.CAFile != "" {
		base.Connection.TLS.CAFile = expandHomeDir(conn.TLS.CAFile)
	}
	if conn.TLS.ClientCert != "" {
		base.Connection.TLS.ClientCert = expandHomeDir(conn.TLS.ClientCert)
	}
	if conn.TLS.ClientKey != "" {
		base.Connection.TLS.ClientKey = expandHomeDir(conn.TLS.ClientKey)
	}
	if conn.TLS.ServerName != "" {
		base.Connection.TLS.ServerName = conn.TLS.ServerName
	}
	if fieldSet(raw, "connection", "tls", "insecure_skip_verify") {
		base.Connection.TLS.InsecureSkipVerify = conn.TLS.InsecureSkipVerify
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	tel := override.Telemetry
	if fieldSet(raw, "telemetry", "metrics_enabled") {
		base.Telemetry.MetricsEnabled = tel.MetricsEnabled
	}
	if fieldSet(raw, "telemetry", "tracing", "enabled") {
		base.Telemetry.Tracing.Enabled = tel.Tracing.Enabled
	}
	if tel.Tracing.ServiceName != "" {
		base.Telemetry.Tracing.ServiceName = tel.Tracing.ServiceName
	}
	if fieldSet(raw, "telemetry", "nats", "enabled") {
		base.Telemetry.NATS.Enabled = tel.NATS.Enabled
	}
	if tel.NATS.URL != "" {
		base.Telemetry.NATS.URL = tel.NATS.URL
	}
	if tel.NATS.Subject != "" {
		base.Telemetry.NATS.Subject = tel.NATS.Subject
	}
	if tel.NATS.ConnectTimeout != 0 {
		base.Telemetry.NATS.ConnectTimeout = tel.NATS.ConnectTimeout
	}

	if override.Engine.Listen != "" {
		base.Engine.Listen = override.Engine.Listen
	}
	if override.Engine.Admin != "" {
		base.Engine.Admin = override.Engine.Admin
	}
}

func fieldSet(raw map[string]any, path ...string) bool {
	if len(path) == 0 || raw == nil {
		return false
	}
	current := any(raw)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		val, ok := m[key]
		if !ok {
			return false
		}
		current = val
	}
	return true
}
