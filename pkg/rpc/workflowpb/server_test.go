package workflowpb

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
)

type recordingServer struct {
	UnimplementedRemoteWorkflowServiceServer

	mu      sync.Mutex
	chains  []*ChainRequest
	deletes []string
}

func (s *recordingServer) Chain(_ context.Context, req *ChainRequest) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains = append(s.chains, req)
	return &emptypb.Empty{}, nil
}

func (s *recordingServer) Delete(_ context.Context, req *RemoteWorkflow) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.GetToken() == "missing" {
		return nil, status.Error(codes.NotFound, "no such workflow")
	}
	s.deletes = append(s.deletes, req.GetToken())
	return &emptypb.Empty{}, nil
}

func startBufconn(t *testing.T, srv RemoteWorkflowServiceServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := NewServer()
	RegisterRemoteWorkflowServiceServer(server, srv)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClient_ChainOverGRPC(t *testing.T) {
	srv := &recordingServer{}
	client := NewRemoteWorkflowServiceClient(startBufconn(t, srv))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Chain(ctx, &ChainRequest{
		Wf:            &RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &RemoteWorkflow{Token: "wf-2"},
		InputToOutput: &InputToOutputChainRequest{OutputName: "output", InputName: "field"},
	})
	require.NoError(t, err)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.chains, 1)
	got := srv.chains[0]
	assert.Equal(t, "wf-1", got.GetWf().GetToken())
	assert.Equal(t, "wf-2", got.GetWfToChainWith().GetToken())
	assert.Equal(t, "output", got.GetInputToOutput().GetOutputName())
	assert.Equal(t, "field", got.GetInputToOutput().GetInputName())
}

func TestClient_DeleteStatusPropagates(t *testing.T) {
	client := NewRemoteWorkflowServiceClient(startBufconn(t, &recordingServer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Delete(ctx, &RemoteWorkflow{Token: "missing"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestUnimplementedServer(t *testing.T) {
	client := NewRemoteWorkflowServiceClient(startBufconn(t, UnimplementedRemoteWorkflowServiceServer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Chain(ctx, &ChainRequest{Wf: &RemoteWorkflow{Token: "wf-1"}})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestConnectClient_SpeaksGRPC(t *testing.T) {
	srv := &recordingServer{}
	server := NewServer()
	RegisterRemoteWorkflowServiceServer(server, srv)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	httpClient := &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
	client := NewRemoteWorkflowServiceConnectClient(httpClient, "http://"+lis.Addr().String()+"/")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.Chain(ctx, &ChainRequest{
		Wf:            &RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &RemoteWorkflow{Token: "wf-2"},
	})
	require.NoError(t, err)

	_, err = client.Delete(ctx, &RemoteWorkflow{Token: "missing"})
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.chains, 1)
	assert.Nil(t, srv.chains[0].GetInputToOutput())
}
