// Package session owns the channel to the remote workflow service. Proxies
// share a Session without owning it; closing the session invalidates every
// handle obtained through it.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/odvcencio/remoteflow/pkg/config"
	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// Session is a channel to the remote workflow service. It is safe for
// concurrent use.
type Session struct {
	id             string
	target         string
	transport      string
	releaseTimeout time.Duration

	logger  *logging.Logger
	hub     *telemetry.Hub
	metrics *telemetry.Metrics

	client workflowpb.RemoteWorkflowServiceClient
	closer func() error

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

func newSession(target, transport string, o *options) *Session {
	id := o.id
	if id == "" {
		id = GenerateSessionID(sessionBase(target))
	}
	return &Session{
		id:        id,
		target:    target,
		transport: transport,
		logger:    o.logger.WithSession(id, target),
		hub:       o.hub,
		metrics:   o.metrics,
	}
}

// Dial opens a session using cfg. The grpc transport does not block unless
// WithWaitForReady is given, so an unreachable service fails the first call.
func Dial(ctx context.Context, cfg config.ConnectionConfig, opts ...Option) (*Session, error) {
	o := buildOptions(opts)

	target := strings.TrimSpace(cfg.Target)
	if target == "" {
		return nil, rferrors.New(rferrors.ErrCodeSessionDial, "target is required")
	}
	transport := strings.ToLower(strings.TrimSpace(cfg.Transport))
	if transport == "" {
		transport = config.DefaultTransport
	}

	s := newSession(target, transport, o)
	s.releaseTimeout = cfg.ReleaseTimeout
	in := newInstrumentation(s.id, cfg.CallTimeout, o)

	var err error
	switch transport {
	case config.TransportGRPC:
		err = s.dialGRPC(ctx, cfg, in, o)
	case config.TransportConnect:
		err = s.dialConnect(cfg, in, o)
	default:
		return nil, rferrors.New(rferrors.ErrCodeInvalidInput, "unsupported transport").
			WithContext("transport", transport)
	}
	if err != nil {
		return nil, rferrors.Wrap(err, rferrors.ErrCodeSessionDial, "dial remote workflow service").
			WithContext("target", target).
			WithContext("transport", transport).
			WithRemediation("check connection.target and the connection.tls settings")
	}

	s.opened()
	return s, nil
}

func (s *Session) dialGRPC(ctx context.Context, cfg config.ConnectionConfig, in *instrumentation, o *options) error {
	var creds credentials.TransportCredentials
	if cfg.TLS.Enabled() {
		tlsCfg, err := buildTLSConfig(cfg.TLS, cfg.Target)
		if err != nil {
			return err
		}
		creds = credentials.NewTLS(tlsCfg)
	} else {
		creds = insecure.NewCredentials()
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithChainUnaryInterceptor(in.UnaryClientInterceptor()),
	}
	if cfg.MaxMessageBytes > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxMessageBytes),
			grpc.MaxCallSendMsgSize(cfg.MaxMessageBytes),
		))
	}
	dialOpts = append(dialOpts, o.dialOptions...)

	conn, err := grpc.NewClient(cfg.Target, dialOpts...)
	if err != nil {
		return err
	}

	if o.waitForReady {
		if err := waitReady(ctx, conn, cfg.DialTimeout); err != nil {
			_ = conn.Close()
			return err
		}
	}

	s.client = workflowpb.NewRemoteWorkflowServiceClient(conn)
	s.closer = conn.Close
	return nil
}

func waitReady(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return fmt.Errorf("channel shut down")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("channel not ready (last state %s): %w", state, ctx.Err())
		}
	}
}

func (s *Session) dialConnect(cfg config.ConnectionConfig, in *instrumentation, o *options) error {
	baseURL := cfg.Target
	tlsEnabled := cfg.TLS.Enabled()
	if !strings.Contains(baseURL, "://") {
		if tlsEnabled {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		transport := &http2.Transport{}
		if tlsEnabled {
			tlsCfg, err := buildTLSConfig(cfg.TLS, hostFromURL(baseURL))
			if err != nil {
				return err
			}
			transport.TLSClientConfig = tlsCfg
		} else {
			// h2c: gRPC needs HTTP/2 even without TLS.
			transport.AllowHTTP = true
			dialer := &net.Dialer{Timeout: cfg.DialTimeout}
			transport.DialTLSContext = func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			}
		}
		httpClient = &http.Client{Transport: transport}
		s.closer = func() error {
			transport.CloseIdleConnections()
			return nil
		}
	}

	connectOpts := []connect.ClientOption{connect.WithInterceptors(in.UnaryConnectInterceptor())}
	if cfg.MaxMessageBytes > 0 {
		connectOpts = append(connectOpts,
			connect.WithReadMaxBytes(cfg.MaxMessageBytes),
			connect.WithSendMaxBytes(cfg.MaxMessageBytes),
		)
	}
	connectOpts = append(connectOpts, o.connectOpts...)

	s.client = workflowpb.NewRemoteWorkflowServiceConnectClient(httpClient, baseURL, connectOpts...)
	return nil
}

func hostFromURL(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 {
		u = u[:i]
	}
	return u
}

// FromConn wraps a channel the caller dialed. Calls are instrumented; closing
// the session does not close cc.
func FromConn(cc grpc.ClientConnInterface, opts ...Option) *Session {
	o := buildOptions(opts)
	target := "conn"
	if conn, ok := cc.(*grpc.ClientConn); ok {
		target = conn.Target()
	}
	s := newSession(target, config.TransportGRPC, o)
	in := newInstrumentation(s.id, 0, o)
	s.client = workflowpb.NewRemoteWorkflowServiceClient(&interceptedConn{
		ClientConnInterface: cc,
		interceptor:         in.UnaryClientInterceptor(),
	})
	s.opened()
	return s
}

// FromClient wraps an existing client stub as-is. Used by tests and custom
// transports.
func FromClient(client workflowpb.RemoteWorkflowServiceClient, opts ...Option) *Session {
	o := buildOptions(opts)
	s := newSession("client", "custom", o)
	s.client = client
	s.opened()
	return s
}

func (s *Session) opened() {
	s.logger.SessionDialed(s.id, s.target, s.transport)
	s.hub.Publish(telemetry.Event{
		Type:      telemetry.EventSessionDialed,
		SessionID: s.id,
		Data:      map[string]any{"target": s.target, "transport": s.transport},
	})
}

// Client returns the procedure-call stub bound to the session.
func (s *Session) Client() (workflowpb.RemoteWorkflowServiceClient, error) {
	if s == nil {
		return nil, rferrors.New(rferrors.ErrCodeSessionClosed, "no session")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, rferrors.New(rferrors.ErrCodeSessionClosed, "session closed").
			WithContext("session", s.id).
			WithRemediation("dial a new session; handles from the closed one are still valid on the service")
	}
	if s.client == nil {
		return nil, rferrors.New(rferrors.ErrCodeSessionClosed, "session has no client").
			WithContext("session", s.id)
	}
	return s.client, nil
}

// Close tears down the channel. Handles obtained through the session become
// invalid. Safe to call more than once.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.closer != nil {
			s.closeErr = s.closer()
		}
		s.logger.SessionClosed(s.id, s.closeErr)
		s.hub.Publish(telemetry.Event{Type: telemetry.EventSessionClosed, SessionID: s.id})
	})
	return s.closeErr
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// ID identifies the session in logs and events.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

func (s *Session) Target() string    { return s.target }
func (s *Session) Transport() string { return s.transport }

// ReleaseTimeout is the configured bound for best-effort deletes.
func (s *Session) ReleaseTimeout() time.Duration {
	if s == nil {
		return 0
	}
	return s.releaseTimeout
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *logging.Logger {
	if s == nil {
		return logging.Nop()
	}
	return s.logger
}

// Hub returns the event hub, possibly nil.
func (s *Session) Hub() *telemetry.Hub {
	if s == nil {
		return nil
	}
	return s.hub
}

// Metrics returns the collectors, possibly nil.
func (s *Session) Metrics() *telemetry.Metrics {
	if s == nil {
		return nil
	}
	return s.metrics
}
