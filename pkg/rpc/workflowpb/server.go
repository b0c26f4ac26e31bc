package workflowpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// RemoteWorkflowServiceServer is the server API for the remote workflow service.
type RemoteWorkflowServiceServer interface {
	Chain(context.Context, *ChainRequest) (*emptypb.Empty, error)
	Delete(context.Context, *RemoteWorkflow) (*emptypb.Empty, error)
}

// UnimplementedRemoteWorkflowServiceServer can be embedded for forward compatibility.
type UnimplementedRemoteWorkflowServiceServer struct{}

func (UnimplementedRemoteWorkflowServiceServer) Chain(context.Context, *ChainRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Chain not implemented")
}

func (UnimplementedRemoteWorkflowServiceServer) Delete(context.Context, *RemoteWorkflow) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}

// NewServer builds a grpc.Server that decodes every request with the JSON codec.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)
	return grpc.NewServer(opts...)
}

// --- Manual service descriptor plumbing (no proto build) ---

// RegisterRemoteWorkflowServiceServer registers service handlers.
func RegisterRemoteWorkflowServiceServer(s grpc.ServiceRegistrar, srv RemoteWorkflowServiceServer) {
	s.RegisterService(&_RemoteWorkflowService_serviceDesc, srv)
}

func _RemoteWorkflowService_Chain_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteWorkflowServiceServer).Chain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RemoteWorkflowService_Chain_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteWorkflowServiceServer).Chain(ctx, req.(*ChainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RemoteWorkflowService_Delete_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RemoteWorkflow)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteWorkflowServiceServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RemoteWorkflowService_Delete_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteWorkflowServiceServer).Delete(ctx, req.(*RemoteWorkflow))
	}
	return interceptor(ctx, in, info, handler)
}

var _RemoteWorkflowService_serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RemoteWorkflowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Chain",
			Handler:    _RemoteWorkflowService_Chain_Handler,
		},
		{
			MethodName: "Delete",
			Handler:    _RemoteWorkflowService_Delete_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "remoteflow_workflow",
}
