package config

import (
	"testing"
	"time"
)

func TestMergeConfigsPreservesDefaults(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Connection: ConnectionConfig{
			Target: "custom:50052",
		},
	}
	raw := map[string]any{
		"connection": map[string]any{
			"target": "custom:50052",
		},
	}

	mergeConfigs(base, override, raw)

	if base.Connection.Target != "custom:50052" {
		t.Fatalf("expected target to be overridden")
	}
	if base.Connection.DialTimeout != DefaultDialTimeout {
		t.Fatalf("dial timeout should keep its default when not overridden, got %v", base.Connection.DialTimeout)
	}
	if base.Connection.MaxMessageBytes != DefaultMaxMessageBytes {
		t.Fatalf("max message bytes should keep its default")
	}
}

func TestMergeConfigsRespectsExplicitZero(t *testing.T) {
	base := DefaultConfig()
	override := &Config{}
	raw := map[string]any{
		"connection": map[string]any{
			"dial_timeout": 0,
		},
	}

	mergeConfigs(base, override, raw)

	if base.Connection.DialTimeout != 0 {
		t.Fatalf("expected explicit zero dial timeout, got %v", base.Connection.DialTimeout)
	}
}

func TestMergeConfigsRespectsBooleanOverrides(t *testing.T) {
	base := DefaultConfig()
	base.Telemetry.MetricsEnabled = true
	override := &Config{}
	override.Telemetry.Tracing.Enabled = true
	raw := map[string]any{
		"telemetry": map[string]any{
			"metrics_enabled": false,
			"tracing": map[string]any{
				"enabled": true,
			},
		},
	}

	mergeConfigs(base, override, raw)

	if base.Telemetry.MetricsEnabled {
		t.Fatalf("expected metrics flag to update when override is explicit")
	}
	if !base.Telemetry.Tracing.Enabled {
		t.Fatalf("expected tracing flag to be enabled")
	}
}

func TestMergeConfigsNilOverride(t *testing.T) {
	base := DefaultConfig()
	mergeConfigs(base, nil, nil)
	if base.Connection.Target != DefaultTarget {
		t.Fatalf("nil override should not change base")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("RF_TEST_DURATION", "1500ms")
	if d, ok := envDuration("RF_TEST_DURATION"); !ok || d != 1500*time.Millisecond {
		t.Fatalf("envDuration = %v, %v", d, ok)
	}
	t.Setenv("RF_TEST_DURATION", "garbage")
	if _, ok := envDuration("RF_TEST_DURATION"); ok {
		t.Fatalf("envDuration should reject garbage")
	}
}
