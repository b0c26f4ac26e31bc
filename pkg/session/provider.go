package session

import (
	"context"
	"sync"

	"github.com/odvcencio/remoteflow/pkg/config"
	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
)

// Provider supplies the session proxies are created against. Callers that
// want a process default keep one Provider and pass it explicitly.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (*Session, error)

func (f ProviderFunc) Session(ctx context.Context) (*Session, error) {
	return f(ctx)
}

// Static always returns sess.
func Static(sess *Session) Provider {
	return ProviderFunc(func(context.Context) (*Session, error) {
		if sess == nil {
			return nil, rferrors.New(rferrors.ErrCodeSessionClosed, "no session configured")
		}
		if sess.Closed() {
			return nil, rferrors.New(rferrors.ErrCodeSessionClosed, "session closed").
				WithContext("session", sess.ID())
		}
		return sess, nil
	})
}

// dialFn is swapped in tests.
var dialFn = Dial

// LazyProvider dials on first use and shares the session afterwards. A cached
// session that was closed elsewhere is replaced on the next call.
type LazyProvider struct {
	cfg  config.ConnectionConfig
	opts []Option

	mu     sync.Mutex
	sess   *Session
	closed bool
}

// NewLazyProvider returns a provider that dials cfg on demand.
func NewLazyProvider(cfg config.ConnectionConfig, opts ...Option) *LazyProvider {
	return &LazyProvider{cfg: cfg, opts: opts}
}

// Session returns the shared session, dialing it if needed.
func (p *LazyProvider) Session(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, rferrors.New(rferrors.ErrCodeSessionClosed, "provider closed")
	}
	if p.sess != nil && !p.sess.Closed() {
		return p.sess, nil
	}

	sess, err := dialFn(ctx, p.cfg, p.opts...)
	if err != nil {
		return nil, err
	}
	p.sess = sess
	return sess, nil
}

// Close closes the cached session and refuses further dials.
func (p *LazyProvider) Close() error {
	p.mu.Lock()
	sess := p.sess
	p.sess = nil
	p.closed = true
	p.mu.Unlock()

	if sess == nil {
		return nil
	}
	return sess.Close()
}
