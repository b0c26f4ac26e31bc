// Package workflow provides RemoteWorkflow, a proxy for a workflow that lives
// in the remote post-processing service. The proxy holds only the opaque
// handle token; chaining and release are forwarded over the session.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/session"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// Link connects Output of the receiving workflow to Input of the workflow
// chained in. The zero Link leaves the pairing to the service, which connects
// same-named pins.
type Link struct {
	Output string
	Input  string
}

// IsZero reports whether no linkage was given.
func (l Link) IsZero() bool {
	return l == Link{}
}

func (l Link) request() *workflowpb.InputToOutputChainRequest {
	if l.IsZero() {
		return nil
	}
	return &workflowpb.InputToOutputChainRequest{
		OutputName: l.Output,
		InputName:  l.Input,
	}
}

// RemoteWorkflow is a handle to a server-side workflow. It is safe for
// concurrent use, though calls are forwarded synchronously in call order.
type RemoteWorkflow struct {
	sess  *session.Session
	token string

	logger         *logging.Logger
	hub            *telemetry.Hub
	metrics        *telemetry.Metrics
	releaseTimeout time.Duration

	releaseOnce sync.Once
	released    atomic.Bool
}

// New wraps handle without validating it. Telemetry defaults to whatever the
// session carries.
func New(sess *session.Session, handle *workflowpb.RemoteWorkflow, opts ...Option) *RemoteWorkflow {
	o := options{
		logger:         sess.Logger(),
		hub:            sess.Hub(),
		metrics:        sess.Metrics(),
		releaseTimeout: sess.ReleaseTimeout(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	token := handle.GetToken()
	w := &RemoteWorkflow{
		sess:           sess,
		token:          token,
		logger:         logging.OrNop(o.logger).WithWorkflow(token),
		hub:            o.hub,
		metrics:        o.metrics,
		releaseTimeout: o.releaseTimeout,
	}

	w.metrics.ProxyOpened()
	w.hub.Publish(telemetry.Event{
		Type:      telemetry.EventWorkflowAdopted,
		SessionID: sess.ID(),
		Token:     token,
	})
	return w
}

// NewFromProvider resolves the session through provider, then calls New.
func NewFromProvider(ctx context.Context, provider session.Provider, handle *workflowpb.RemoteWorkflow, opts ...Option) (*RemoteWorkflow, error) {
	if provider == nil {
		return nil, rferrors.New(rferrors.ErrCodeInvalidInput, "session provider is required")
	}
	sess, err := provider.Session(ctx)
	if err != nil {
		return nil, err
	}
	return New(sess, handle, opts...), nil
}

// Token returns the handle token.
func (w *RemoteWorkflow) Token() string {
	return w.token
}

// Handle returns a copy of the handle message.
func (w *RemoteWorkflow) Handle() *workflowpb.RemoteWorkflow {
	return &workflowpb.RemoteWorkflow{Token: w.token}
}

// Session returns the session the proxy forwards over.
func (w *RemoteWorkflow) Session() *session.Session {
	return w.sess
}

// Released reports whether a release was attempted.
func (w *RemoteWorkflow) Released() bool {
	return w.released.Load()
}

// ChainWith asks the service to splice other into w. With a non-zero link,
// link.Output names an output of w and link.Input an input of other. Errors
// from the transport or service are returned unchanged. Local tokens are
// not modified; afterwards w stands for the merged workflow.
func (w *RemoteWorkflow) ChainWith(ctx context.Context, other *RemoteWorkflow, link Link) error {
	if other == nil {
		return rferrors.New(rferrors.ErrCodeInvalidInput, "workflow to chain with is nil").
			WithContext("workflow", w.token)
	}
	for _, wf := range []*RemoteWorkflow{w, other} {
		if wf.Released() {
			return rferrors.New(rferrors.ErrCodeHandleReleased, "workflow already released").
				WithContext("workflow", wf.token).
				WithRemediation("obtain a fresh handle from the service")
		}
	}

	client, err := w.sess.Client()
	if err != nil {
		return err
	}

	req := &workflowpb.ChainRequest{
		Wf:            &workflowpb.RemoteWorkflow{Token: w.token},
		WfToChainWith: &workflowpb.RemoteWorkflow{Token: other.token},
		InputToOutput: link.request(),
	}
	if _, err := client.Chain(ctx, req); err != nil {
		w.logger.WithContext(ctx).ChainFailed(w.token, other.token, err)
		w.metrics.ChainResult(telemetry.ResultError)
		w.hub.Publish(telemetry.Event{
			Type:      telemetry.EventWorkflowChainFailed,
			SessionID: w.sess.ID(),
			Token:     w.token,
			Data:      map[string]any{"chained_with": other.token, "error": err.Error()},
		})
		return err
	}

	w.logger.WithContext(ctx).ChainSent(w.token, other.token, link.Output, link.Input)
	w.metrics.ChainResult(telemetry.ResultOK)
	w.hub.Publish(telemetry.Event{
		Type:      telemetry.EventWorkflowChained,
		SessionID: w.sess.ID(),
		Token:     w.token,
		Data:      map[string]any{"chained_with": other.token, "output_name": link.Output, "input_name": link.Input},
	})
	return nil
}

// Release sends a best-effort delete for the handle.
func (w *RemoteWorkflow) Release() {
	w.ReleaseContext(context.Background())
}

// ReleaseContext sends the delete at most once. Every failure is swallowed,
// including a closed session, a timeout, NotFound, or a panicking stub; the
// outcome is visible only through the logger, metrics, and hub.
func (w *RemoteWorkflow) ReleaseContext(ctx context.Context) {
	w.releaseOnce.Do(func() {
		w.released.Store(true)
		defer w.metrics.ProxyClosed()

		if err := w.sendDelete(ctx); err != nil {
			w.logger.ReleaseSwallowed(w.token, err)
			w.metrics.ReleaseResult(telemetry.ResultSwallowed)
			w.hub.Publish(telemetry.Event{
				Type:      telemetry.EventWorkflowReleaseFailed,
				SessionID: w.sess.ID(),
				Token:     w.token,
				Data:      map[string]any{"error": err.Error(), "kind": string(rferrors.Classify(err))},
			})
			return
		}

		w.logger.ReleaseSent(w.token)
		w.metrics.ReleaseResult(telemetry.ResultOK)
		w.hub.Publish(telemetry.Event{
			Type:      telemetry.EventWorkflowReleased,
			SessionID: w.sess.ID(),
			Token:     w.token,
		})
	})
}

// Close releases the handle and always returns nil, so it can be deferred or
// handed to anything expecting an io.Closer.
func (w *RemoteWorkflow) Close() error {
	w.Release()
	return nil
}

func (w *RemoteWorkflow) sendDelete(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rferrors.New(rferrors.ErrCodeInternal, fmt.Sprintf("panic during release: %v", r))
		}
	}()

	client, err := w.sess.Client()
	if err != nil {
		return err
	}
	if w.releaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.releaseTimeout)
		defer cancel()
	}
	_, err = client.Delete(ctx, &workflowpb.RemoteWorkflow{Token: w.token})
	return err
}
