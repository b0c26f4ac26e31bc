package session

import (
	"context"
	"path"
	"strings"
	"time"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// RequestIDHeader carries a per-call UUIDv4 (NewRequestID) to the service.
const RequestIDHeader = "x-request-id"

// instrumentation wraps every outgoing call with a request ID, a span,
// metrics, a debug log line, and the configured call timeout.
type instrumentation struct {
	sessionID   string
	logger      *logging.Logger
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
	callTimeout time.Duration
}

func newInstrumentation(sessionID string, callTimeout time.Duration, o *options) *instrumentation {
	return &instrumentation{
		sessionID:   sessionID,
		logger:      o.logger,
		metrics:     o.metrics,
		tracer:      telemetry.Tracer(o.tracer),
		callTimeout: callTimeout,
	}
}

type callFinisher func(code string, err error)

func (in *instrumentation) begin(ctx context.Context, procedure string, req any) (context.Context, string, callFinisher) {
	requestID := NewRequestID()
	method := path.Base(procedure)

	attrs := []attribute.KeyValue{
		telemetry.AttrRPCMethod.String(method),
		telemetry.AttrRequestID.String(requestID),
		telemetry.AttrSessionID.String(in.sessionID),
	}
	attrs = append(attrs, requestAttributes(req)...)

	ctx, span := in.tracer.Start(ctx, strings.TrimPrefix(procedure, "/"),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	cancel := context.CancelFunc(func() {})
	if in.callTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, in.callTimeout)
	}

	start := time.Now()
	finish := func(code string, err error) {
		cancel()
		elapsed := time.Since(start)

		span.SetAttributes(telemetry.AttrRPCCode.String(code))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()

		in.metrics.ObserveRPC(method, code, elapsed)
		in.logger.WithContext(ctx).RPC(method, code, float64(elapsed.Microseconds())/1000)
	}
	return ctx, requestID, finish
}

func requestAttributes(req any) []attribute.KeyValue {
	switch r := req.(type) {
	case *workflowpb.ChainRequest:
		return []attribute.KeyValue{
			telemetry.AttrWorkflowToken.String(r.GetWf().GetToken()),
			telemetry.AttrChainedWith.String(r.GetWfToChainWith().GetToken()),
		}
	case *workflowpb.RemoteWorkflow:
		return []attribute.KeyValue{telemetry.AttrWorkflowToken.String(r.GetToken())}
	default:
		return nil
	}
}

// UnaryClientInterceptor instruments calls made over a grpc channel.
func (in *instrumentation) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, requestID, finish := in.begin(ctx, method, req)
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
		err := invoker(ctx, method, req, reply, cc, opts...)
		finish(status.Code(err).String(), err)
		return err
	}
}

// UnaryConnectInterceptor instruments calls made through connect-go.
func (in *instrumentation) UnaryConnectInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, requestID, finish := in.begin(ctx, req.Spec().Procedure, req.Any())
			req.Header().Set(RequestIDHeader, requestID)
			resp, err := next(ctx, req)
			code := codes.OK
			if err != nil {
				code = codes.Code(connect.CodeOf(err))
			}
			finish(code.String(), err)
			return resp, err
		}
	}
}

// interceptedConn applies a unary interceptor to a channel the session did
// not dial itself.
type interceptedConn struct {
	grpc.ClientConnInterface
	interceptor grpc.UnaryClientInterceptor
}

func (c *interceptedConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	cc, _ := c.ClientConnInterface.(*grpc.ClientConn)
	invoker := func(ctx context.Context, method string, req, reply any, _ *grpc.ClientConn, opts ...grpc.CallOption) error {
		return c.ClientConnInterface.Invoke(ctx, method, req, reply, opts...)
	}
	return c.interceptor(ctx, method, args, reply, cc, invoker, opts...)
}
