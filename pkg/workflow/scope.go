package workflow

import (
	"context"
	"sync"

	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/session"
)

// Use wraps handle for the duration of fn and releases it afterwards, even
// if fn panics. The release is not cancelled by ctx.
func Use(ctx context.Context, sess *session.Session, handle *workflowpb.RemoteWorkflow, fn func(*RemoteWorkflow) error, opts ...Option) error {
	wf := New(sess, handle, opts...)
	defer wf.ReleaseContext(context.WithoutCancel(ctx))
	return fn(wf)
}

// Scope collects proxies and releases them together, newest first.
type Scope struct {
	sess *session.Session
	opts []Option

	mu      sync.Mutex
	tracked []*RemoteWorkflow
	closed  bool
}

// NewScope returns a scope whose Adopt creates proxies on sess.
func NewScope(sess *session.Session, opts ...Option) *Scope {
	return &Scope{sess: sess, opts: opts}
}

// Adopt wraps handle and tracks the proxy.
func (s *Scope) Adopt(handle *workflowpb.RemoteWorkflow) *RemoteWorkflow {
	wf := New(s.sess, handle, s.opts...)
	s.Track(wf)
	return wf
}

// Track adds wf to the scope. Tracking on a closed scope releases wf
// immediately.
func (s *Scope) Track(wf *RemoteWorkflow) {
	if wf == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		wf.Release()
		return
	}
	s.tracked = append(s.tracked, wf)
	s.mu.Unlock()
}

// Len reports how many proxies are tracked.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

// Close releases every tracked proxy in reverse order of acquisition. It
// always returns nil; calling it again does nothing.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tracked := s.tracked
	s.tracked = nil
	s.mu.Unlock()

	for i := len(tracked) - 1; i >= 0; i-- {
		tracked[i].Release()
	}
	return nil
}
