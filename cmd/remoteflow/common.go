package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/odvcencio/remoteflow/pkg/config"
	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/session"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// loadConfigFn allows tests to stub config discovery.
var loadConfigFn = config.Load

type commonFlags struct {
	configPath string
	target     string
	transport  string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to config file (default: ~/.remoteflow/config.yaml, ./.remoteflow/config.yaml)")
	fs.StringVar(&c.target, "target", "", "Remote workflow service address (overrides connection.target)")
	fs.StringVar(&c.transport, "transport", "", "Transport: grpc or connect (overrides connection.transport)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func (c *commonFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if strings.TrimSpace(c.configPath) != "" {
		cfg, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, err = loadConfigFn()
	}
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(c.target); v != "" {
		cfg.Connection.Target = v
	}
	if v := strings.TrimSpace(c.transport); v != "" {
		cfg.Connection.Transport = v
	}
	if v := strings.TrimSpace(c.logLevel); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// commandEnv carries the ambient stack a command runs with.
type commandEnv struct {
	cfg      *config.Config
	logger   *logging.Logger
	hub      *telemetry.Hub
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	tracer   *telemetry.TracerProvider
	bridge   *telemetry.NATSBridge
}

func newCommandEnv(cfg *config.Config, component string, stderr io.Writer) (*commandEnv, error) {
	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	env := &commandEnv{
		cfg: cfg,
		logger: logging.New(component, logging.Options{
			Level:  level,
			Format: cfg.Logging.Format,
			Output: stderr,
		}),
		hub: telemetry.NewHub(),
	}

	if cfg.Telemetry.MetricsEnabled {
		env.registry = prometheus.NewRegistry()
		env.metrics = telemetry.NewMetrics(env.registry)
	}

	if cfg.Telemetry.Tracing.Enabled {
		tp, err := telemetry.NewTracerProvider(cfg.Telemetry.Tracing.ServiceName, version, stderr)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.tracer = tp
	}

	if cfg.Telemetry.NATS.Enabled {
		bridge, err := telemetry.ConnectNATS(cfg.Telemetry.NATS)
		if err != nil {
			env.Close()
			return nil, err
		}
		bridge.Attach(env.hub)
		env.bridge = bridge
	}

	return env, nil
}

func (e *commandEnv) sessionOptions() []session.Option {
	return []session.Option{
		session.WithLogger(e.logger),
		session.WithHub(e.hub),
		session.WithMetrics(e.metrics),
	}
}

func (e *commandEnv) dial(ctx context.Context) (*session.Session, error) {
	sess, err := session.Dial(ctx, e.cfg.Connection, e.sessionOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", e.cfg.Connection.Target, err)
	}
	return sess, nil
}

// Close flushes exporters. The NATS bridge goes first so it sees every event
// the hub carried.
func (e *commandEnv) Close() {
	if e.bridge != nil {
		if err := e.bridge.Close(); err != nil {
			e.logger.Warn("nats bridge close failed", "error", err)
		}
	}
	e.hub.Close()
	if e.tracer != nil {
		if err := e.tracer.Shutdown(context.Background()); err != nil {
			e.logger.Warn("tracer shutdown failed", "error", err)
		}
	}
}
