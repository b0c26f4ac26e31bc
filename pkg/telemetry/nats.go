package telemetry

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/odvcencio/remoteflow/pkg/config"
)

// Publisher is the subset of *nats.Conn the bridge needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSBridge forwards hub events to "<subject>.<event type>" so handle
// lifecycles can be accounted for outside the process.
type NATSBridge struct {
	pub     Publisher
	subject string
	conn    *nats.Conn
	// flushTimeout bounds the server round trip Close waits for.
	flushTimeout time.Duration

	mu      sync.Mutex
	unsub   func()
	done    chan struct{}
	dropped int
}

// ConnectNATS dials NATS and returns a bridge that owns the connection.
func ConnectNATS(cfg config.NATSConfig) (*NATSBridge, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	conn, err := nats.Connect(url,
		nats.Name("remoteflow"),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	bridge := NewNATSBridge(conn, cfg.Subject)
	bridge.conn = conn
	bridge.flushTimeout = timeout
	return bridge, nil
}

// NewNATSBridge wraps an existing publisher.
func NewNATSBridge(pub Publisher, subject string) *NATSBridge {
	if subject == "" {
		subject = config.DefaultNATSSubject
	}
	return &NATSBridge{pub: pub, subject: subject}
}

// Attach starts forwarding events from hub until Close.
func (b *NATSBridge) Attach(hub *Hub) {
	events, unsub := hub.Subscribe()
	done := make(chan struct{})

	b.mu.Lock()
	b.unsub = unsub
	b.done = done
	b.mu.Unlock()

	go func() {
		defer close(done)
		for evt := range events {
			b.forward(evt)
		}
	}()
}

func (b *NATSBridge) forward(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		b.drop()
		return
	}
	if err := b.pub.Publish(b.subject+"."+string(evt.Type), data); err != nil {
		b.drop()
	}
}

func (b *NATSBridge) drop() {
	b.mu.Lock()
	b.dropped++
	b.mu.Unlock()
}

// Dropped reports events that failed to encode or publish.
func (b *NATSBridge) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close stops forwarding and waits for in-flight events. An owned
// connection is flushed to the server before it is closed, so published
// events are not lost when the process exits right after.
func (b *NATSBridge) Close() error {
	b.mu.Lock()
	unsub, done, conn := b.unsub, b.done, b.conn
	b.unsub, b.done, b.conn = nil, nil, nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
		<-done
	}
	if conn == nil {
		return nil
	}
	err := conn.FlushTimeout(b.flushTimeout)
	conn.Close()
	if err != nil {
		return fmt.Errorf("flush NATS: %w", err)
	}
	return nil
}
