package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/odvcencio/remoteflow/pkg/config"
	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb/mocks"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

type fakeService struct {
	workflowpb.UnimplementedRemoteWorkflowServiceServer

	mu         sync.Mutex
	chains     []*workflowpb.ChainRequest
	requestIDs []string
	block      bool
}

func (s *fakeService) record(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		s.requestIDs = append(s.requestIDs, md.Get(RequestIDHeader)...)
	}
}

func (s *fakeService) Chain(ctx context.Context, req *workflowpb.ChainRequest) (*emptypb.Empty, error) {
	if s.block {
		<-ctx.Done()
		return nil, status.FromContextError(ctx.Err()).Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(ctx)
	s.chains = append(s.chains, req)
	return &emptypb.Empty{}, nil
}

func (s *fakeService) Delete(ctx context.Context, req *workflowpb.RemoteWorkflow) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(ctx)
	if req.GetToken() != "wf-1" {
		return nil, status.Error(codes.NotFound, "no such workflow")
	}
	return &emptypb.Empty{}, nil
}

func startBufconn(t *testing.T, svc workflowpb.RemoteWorkflowServiceServer) grpc.DialOption {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := workflowpb.NewServer()
	workflowpb.RegisterRemoteWorkflowServiceServer(server, svc)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func closedPort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func bufconnConfig() config.ConnectionConfig {
	return config.ConnectionConfig{
		Target:      "passthrough:///bufnet",
		Transport:   config.TransportGRPC,
		DialTimeout: 5 * time.Second,
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDial_GRPCInstrumentsCalls(t *testing.T) {
	svc := &fakeService{}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	metrics := telemetry.NewMetrics(nil)

	ctx := testContext(t)
	sess, err := Dial(ctx, bufconnConfig(),
		WithDialOptions(startBufconn(t, svc)),
		WithMetrics(metrics),
		WithTracerProvider(tp),
	)
	require.NoError(t, err)
	defer sess.Close()

	client, err := sess.Client()
	require.NoError(t, err)

	_, err = client.Chain(ctx, &workflowpb.ChainRequest{
		Wf:            &workflowpb.RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &workflowpb.RemoteWorkflow{Token: "wf-2"},
	})
	require.NoError(t, err)

	svc.mu.Lock()
	require.Len(t, svc.chains, 1)
	require.Len(t, svc.requestIDs, 1)
	assert.Len(t, svc.requestIDs[0], 36)
	svc.mu.Unlock()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RPCCalls.WithLabelValues("Chain", "OK")))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "remoteflow.v1.RemoteWorkflowService/Chain", spans[0].Name())
	attrs := make(map[string]string)
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "wf-1", attrs[string(telemetry.AttrWorkflowToken)])
	assert.Equal(t, "wf-2", attrs[string(telemetry.AttrChainedWith)])
	assert.Equal(t, sess.ID(), attrs[string(telemetry.AttrSessionID)])
}

func TestDial_RecordsRejectedCode(t *testing.T) {
	metrics := telemetry.NewMetrics(nil)
	ctx := testContext(t)
	sess, err := Dial(ctx, bufconnConfig(),
		WithDialOptions(startBufconn(t, &fakeService{})),
		WithMetrics(metrics),
	)
	require.NoError(t, err)
	defer sess.Close()

	client, err := sess.Client()
	require.NoError(t, err)

	_, err = client.Delete(ctx, &workflowpb.RemoteWorkflow{Token: "wf-9"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RPCCalls.WithLabelValues("Delete", "NotFound")))
}

func TestDial_WaitForReady(t *testing.T) {
	ctx := testContext(t)
	sess, err := Dial(ctx, bufconnConfig(), WithDialOptions(startBufconn(t, &fakeService{})), WithWaitForReady())
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	cfg := config.ConnectionConfig{Target: closedPort(t), DialTimeout: 200 * time.Millisecond}
	_, err = Dial(ctx, cfg, WithWaitForReady())
	require.Error(t, err)
	assert.True(t, rferrors.IsCode(err, rferrors.ErrCodeSessionDial))
}

func TestDial_UnreachableFailsFirstCall(t *testing.T) {
	ctx := testContext(t)
	sess, err := Dial(ctx, config.ConnectionConfig{Target: closedPort(t)})
	require.NoError(t, err)
	defer sess.Close()

	client, err := sess.Client()
	require.NoError(t, err)

	_, err = client.Chain(ctx, &workflowpb.ChainRequest{
		Wf:            &workflowpb.RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &workflowpb.RemoteWorkflow{Token: "wf-2"},
	})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, rferrors.KindTransport, rferrors.Classify(err))
}

func TestDial_Validation(t *testing.T) {
	ctx := testContext(t)

	_, err := Dial(ctx, config.ConnectionConfig{})
	assert.True(t, rferrors.IsCode(err, rferrors.ErrCodeSessionDial))

	_, err = Dial(ctx, config.ConnectionConfig{Target: "127.0.0.1:1", Transport: "smoke-signals"})
	assert.True(t, rferrors.IsCode(err, rferrors.ErrCodeInvalidInput))

	_, err = Dial(ctx, config.ConnectionConfig{
		Target: "127.0.0.1:1",
		TLS:    config.TLSConfig{CAFile: "/nonexistent/ca.pem"},
	})
	assert.True(t, rferrors.IsCode(err, rferrors.ErrCodeSessionDial))
}

func TestDial_CallTimeout(t *testing.T) {
	ctx := testContext(t)
	cfg := bufconnConfig()
	cfg.CallTimeout = 50 * time.Millisecond

	sess, err := Dial(ctx, cfg, WithDialOptions(startBufconn(t, &fakeService{block: true})))
	require.NoError(t, err)
	defer sess.Close()

	client, err := sess.Client()
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Chain(ctx, &workflowpb.ChainRequest{})
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestDial_Connect(t *testing.T) {
	svc := &fakeService{}
	server := workflowpb.NewServer()
	workflowpb.RegisterRemoteWorkflowServiceServer(server, svc)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	metrics := telemetry.NewMetrics(nil)
	ctx := testContext(t)
	sess, err := Dial(ctx, config.ConnectionConfig{
		Target:    lis.Addr().String(),
		Transport: config.TransportConnect,
	}, WithMetrics(metrics))
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, config.TransportConnect, sess.Transport())

	client, err := sess.Client()
	require.NoError(t, err)

	_, err = client.Chain(ctx, &workflowpb.ChainRequest{
		Wf:            &workflowpb.RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &workflowpb.RemoteWorkflow{Token: "wf-2"},
		InputToOutput: &workflowpb.InputToOutputChainRequest{OutputName: "output", InputName: "field"},
	})
	require.NoError(t, err)

	_, err = client.Delete(ctx, &workflowpb.RemoteWorkflow{Token: "wf-3"})
	assert.Equal(t, rferrors.KindRejected, rferrors.Classify(err))

	svc.mu.Lock()
	defer svc.mu.Unlock()
	require.Len(t, svc.chains, 1)
	assert.Equal(t, "field", svc.chains[0].GetInputToOutput().GetInputName())
	require.Len(t, svc.requestIDs, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RPCCalls.WithLabelValues("Delete", "NotFound")))
}

func TestSession_ClientAfterClose(t *testing.T) {
	hub := telemetry.NewHub()
	defer hub.Close()
	events, unsub := hub.Subscribe()
	defer unsub()

	ctx := testContext(t)
	sess, err := Dial(ctx, bufconnConfig(), WithDialOptions(startBufconn(t, &fakeService{})), WithHub(hub), WithID("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", sess.ID())
	assert.False(t, sess.Closed())

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.True(t, sess.Closed())

	_, err = sess.Client()
	require.Error(t, err)
	assert.True(t, rferrors.IsCode(err, rferrors.ErrCodeSessionClosed))
	assert.Equal(t, rferrors.KindLocal, rferrors.Classify(err))

	var seen []telemetry.EventType
	for len(seen) < 2 {
		select {
		case evt := <-events:
			assert.Equal(t, "fixed", evt.SessionID)
			seen = append(seen, evt.Type)
		case <-time.After(time.Second):
			t.Fatalf("missing events, got %v", seen)
		}
	}
	assert.Equal(t, []telemetry.EventType{telemetry.EventSessionDialed, telemetry.EventSessionClosed}, seen)
}

func TestSession_NilIsClosed(t *testing.T) {
	var sess *Session
	assert.True(t, sess.Closed())
	assert.NoError(t, sess.Close())
	_, err := sess.Client()
	assert.True(t, rferrors.IsCode(err, rferrors.ErrCodeSessionClosed))
}

func TestFromConn_InstrumentsCallerChannel(t *testing.T) {
	svc := &fakeService{}
	conn, err := grpc.NewClient("passthrough:///bufnet",
		startBufconn(t, svc),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	metrics := telemetry.NewMetrics(nil)
	sess := FromConn(conn, WithMetrics(metrics))
	client, err := sess.Client()
	require.NoError(t, err)

	ctx := testContext(t)
	_, err = client.Delete(ctx, &workflowpb.RemoteWorkflow{Token: "wf-1"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RPCCalls.WithLabelValues("Delete", "OK")))

	require.NoError(t, sess.Close())
	_, err = client.Delete(ctx, &workflowpb.RemoteWorkflow{Token: "wf-1"})
	assert.NoError(t, err, "closing the session must not close a caller-owned channel")
}

func TestFromClient_ReturnsStub(t *testing.T) {
	ctrl := gomock.NewController(t)
	stub := mocks.NewMockRemoteWorkflowServiceClient(ctrl)

	sess := FromClient(stub)
	client, err := sess.Client()
	require.NoError(t, err)
	assert.Same(t, stub, client)
}
