package workflow

import (
	"time"

	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// Option overrides the telemetry and release settings a proxy inherits from
// its session.
type Option func(*options)

type options struct {
	logger         *logging.Logger
	hub            *telemetry.Hub
	metrics        *telemetry.Metrics
	releaseTimeout time.Duration
}

func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithHub(hub *telemetry.Hub) Option {
	return func(o *options) { o.hub = hub }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithReleaseTimeout bounds the delete sent on release. Zero means no bound
// beyond the caller's context.
func WithReleaseTimeout(d time.Duration) Option {
	return func(o *options) { o.releaseTimeout = d }
}
