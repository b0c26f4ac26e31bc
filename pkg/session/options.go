package session

import (
	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger       *logging.Logger
	hub          *telemetry.Hub
	metrics      *telemetry.Metrics
	tracer       trace.TracerProvider
	dialOptions  []grpc.DialOption
	httpClient   connect.HTTPClient
	connectOpts  []connect.ClientOption
	waitForReady bool
	id           string
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.logger = logging.OrNop(o.logger)
	return o
}

// WithLogger sets the logger used for session and RPC events.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHub publishes session lifecycle events to hub. Proxies created on the
// session inherit it.
func WithHub(hub *telemetry.Hub) Option {
	return func(o *options) { o.hub = hub }
}

// WithMetrics records RPC calls on m. Proxies created on the session inherit it.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider overrides the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// WithDialOptions appends raw gRPC dial options (custom dialers, bufconn).
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

// WithHTTPClient replaces the HTTP/2 client used by the connect transport.
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

// WithConnectOptions appends connect client options.
func WithConnectOptions(opts ...connect.ClientOption) Option {
	return func(o *options) { o.connectOpts = append(o.connectOpts, opts...) }
}

// WithWaitForReady makes a gRPC Dial block until the channel is ready, bounded
// by the dial timeout. Without it the first call surfaces connection errors.
func WithWaitForReady() Option {
	return func(o *options) { o.waitForReady = true }
}

// WithID fixes the session identifier instead of generating one.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}
