package workflowpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	ServiceName = "remoteflow.v1.RemoteWorkflowService"

	RemoteWorkflowService_Chain_FullMethodName  = "/" + ServiceName + "/Chain"
	RemoteWorkflowService_Delete_FullMethodName = "/" + ServiceName + "/Delete"
)

// RemoteWorkflowServiceClient is the client API for the remote workflow service.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_client.go github.com/odvcencio/remoteflow/pkg/rpc/workflowpb RemoteWorkflowServiceClient
type RemoteWorkflowServiceClient interface {
	Chain(ctx context.Context, in *ChainRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Delete(ctx context.Context, in *RemoteWorkflow, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type remoteWorkflowServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRemoteWorkflowServiceClient binds a client stub to cc. The JSON codec is
// forced on every call so callers do not need dial-time codec options.
func NewRemoteWorkflowServiceClient(cc grpc.ClientConnInterface) RemoteWorkflowServiceClient {
	return &remoteWorkflowServiceClient{cc: cc}
}

func (c *remoteWorkflowServiceClient) Chain(ctx context.Context, in *ChainRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, RemoteWorkflowService_Chain_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *remoteWorkflowServiceClient) Delete(ctx context.Context, in *RemoteWorkflow, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, RemoteWorkflowService_Delete_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
}
