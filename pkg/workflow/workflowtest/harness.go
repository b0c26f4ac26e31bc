package workflowtest

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/odvcencio/remoteflow/pkg/config"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/session"
)

const bufSize = 1 << 20

// Harness runs an Engine on an in-process listener.
type Harness struct {
	Engine  *Engine
	Session *session.Session

	t      testing.TB
	lis    *bufconn.Listener
	server *grpc.Server
}

// Start serves a fresh engine over bufconn and dials a session to it. Both
// are torn down when the test ends.
func Start(t testing.TB, opts ...session.Option) *Harness {
	t.Helper()
	return StartEngine(t, NewEngine(), opts...)
}

// StartEngine is Start with a caller-built engine.
func StartEngine(t testing.TB, engine *Engine, opts ...session.Option) *Harness {
	t.Helper()

	h := &Harness{
		Engine: engine,
		t:      t,
		lis:    bufconn.Listen(bufSize),
		server: workflowpb.NewServer(),
	}
	engine.Register(h.server)
	go func() {
		_ = h.server.Serve(h.lis)
	}()
	t.Cleanup(h.server.Stop)

	h.Session = h.Dial(opts...)
	return h
}

// Dial opens an additional session to the engine.
func (h *Harness) Dial(opts ...session.Option) *session.Session {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts = append([]session.Option{
		session.WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return h.lis.DialContext(ctx)
		})),
	}, opts...)

	sess, err := session.Dial(ctx, config.ConnectionConfig{
		Target:    "passthrough:///bufnet",
		Transport: config.TransportGRPC,
	}, opts...)
	if err != nil {
		h.t.Fatalf("dial engine: %v", err)
	}
	h.t.Cleanup(func() { _ = sess.Close() })
	return sess
}
