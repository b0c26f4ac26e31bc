package workflowpb

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

type connectClient struct {
	chain  *connect.Client[ChainRequest, emptypb.Empty]
	delete *connect.Client[RemoteWorkflow, emptypb.Empty]
}

// NewRemoteWorkflowServiceConnectClient returns a client that speaks the gRPC
// protocol through connect-go. httpClient must support HTTP/2.
func NewRemoteWorkflowServiceConnectClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RemoteWorkflowServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{
		connect.WithGRPC(),
		connect.WithCodec(jsonCodec{}),
	}, opts...)
	return &connectClient{
		chain:  connect.NewClient[ChainRequest, emptypb.Empty](httpClient, baseURL+RemoteWorkflowService_Chain_FullMethodName, opts...),
		delete: connect.NewClient[RemoteWorkflow, emptypb.Empty](httpClient, baseURL+RemoteWorkflowService_Delete_FullMethodName, opts...),
	}
}

// Chain ignores grpc call options; connect takes its options at construction.
func (c *connectClient) Chain(ctx context.Context, in *ChainRequest, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	resp, err := c.chain.CallUnary(ctx, connect.NewRequest(in))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *connectClient) Delete(ctx context.Context, in *RemoteWorkflow, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	resp, err := c.delete.CallUnary(ctx, connect.NewRequest(in))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
