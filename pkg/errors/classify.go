package errors

import (
	"context"
	stderrors "errors"

	"connectrpc.com/connect"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind groups failures returned by remote calls for reporting.
type Kind string

const (
	KindNone      Kind = ""
	KindLocal     Kind = "local"
	KindTransport Kind = "transport"
	KindRejected  Kind = "rejected"
	KindUnknown   Kind = "unknown"
)

// Classify reports which part of the stack produced err. Errors are never
// rewritten; this is for callers that want to label what they print.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if _, ok := As(err); ok {
		return KindLocal
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return KindTransport
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return kindForGRPC(st.Code())
	}
	var connectErr *connect.Error
	if stderrors.As(err, &connectErr) {
		return kindForGRPC(codes.Code(connectErr.Code()))
	}
	return KindUnknown
}

func kindForGRPC(code codes.Code) Kind {
	switch code {
	case codes.OK:
		return KindNone
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted, codes.Aborted:
		return KindTransport
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition, codes.AlreadyExists,
		codes.PermissionDenied, codes.Unauthenticated, codes.OutOfRange, codes.Unimplemented:
		return KindRejected
	default:
		return KindUnknown
	}
}
