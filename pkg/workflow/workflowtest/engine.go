// Package workflowtest provides an in-memory remote workflow service. It
// tracks handles, pins, and connections; it does not run operators.
package workflowtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/odvcencio/remoteflow/pkg/logging"
	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

// Method names accepted by FailNext.
const (
	MethodChain  = "Chain"
	MethodDelete = "Delete"
)

// Connection wires an output pin of the receiving workflow to an input pin
// of the workflow that was chained in.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
	With string `json:"with"`
}

// Handle is a snapshot of one live workflow.
type Handle struct {
	Token       string       `json:"token"`
	Inputs      []string     `json:"inputs"`
	Outputs     []string     `json:"outputs"`
	Connections []Connection `json:"connections,omitempty"`
}

type graph struct {
	inputs      map[string]struct{}
	outputs     map[string]struct{}
	connections []Connection
}

func newGraph(inputs, outputs []string) *graph {
	g := &graph{
		inputs:  make(map[string]struct{}, len(inputs)),
		outputs: make(map[string]struct{}, len(outputs)),
	}
	for _, name := range inputs {
		g.inputs[name] = struct{}{}
	}
	for _, name := range outputs {
		g.outputs[name] = struct{}{}
	}
	return g
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Engine implements workflowpb.RemoteWorkflowServiceServer in memory.
type Engine struct {
	workflowpb.UnimplementedRemoteWorkflowServiceServer

	logger  *logging.Logger
	metrics *telemetry.Metrics

	mu       sync.Mutex
	next     int
	handles  map[string]*graph
	requests []*workflowpb.ChainRequest
	deletes  int
	failures map[string][]error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger logs every served call.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics exports handle and request counts.
func WithMetrics(m *telemetry.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		handles:  make(map[string]*graph),
		failures: make(map[string][]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Create registers a workflow exposing the given pins and returns its handle.
// Tokens are minted as wf-1, wf-2, ...
func (e *Engine) Create(inputs, outputs []string) *workflowpb.RemoteWorkflow {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	token := fmt.Sprintf("wf-%d", e.next)
	e.handles[token] = newGraph(inputs, outputs)
	e.metrics.EngineServed("Create", codes.OK.String(), len(e.handles))
	return &workflowpb.RemoteWorkflow{Token: token}
}

// FailNext makes the next call to method return err instead of being served.
func (e *Engine) FailNext(method string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[method] = append(e.failures[method], err)
}

func (e *Engine) takeFailure(method string) error {
	queue := e.failures[method]
	if len(queue) == 0 {
		return nil
	}
	e.failures[method] = queue[1:]
	return queue[0]
}

// Chain splices wf_to_chain_with into wf. An explicit linkage must name an
// output of wf and an input of wf_to_chain_with; without one, every output
// of wf feeds the same-named input of wf_to_chain_with.
func (e *Engine) Chain(_ context.Context, req *workflowpb.ChainRequest) (*emptypb.Empty, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, cloneChainRequest(req))

	err := e.chainLocked(req)
	e.served(MethodChain, err)
	if err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (e *Engine) chainLocked(req *workflowpb.ChainRequest) error {
	if err := e.takeFailure(MethodChain); err != nil {
		return err
	}

	token := req.GetWf().GetToken()
	otherToken := req.GetWfToChainWith().GetToken()
	wf, ok := e.handles[token]
	if !ok {
		return status.Errorf(codes.NotFound, "workflow %q not found", token)
	}
	other, ok := e.handles[otherToken]
	if !ok {
		return status.Errorf(codes.NotFound, "workflow %q not found", otherToken)
	}
	if token == otherToken {
		return status.Errorf(codes.InvalidArgument, "cannot chain workflow %q with itself", token)
	}

	var added []Connection
	if link := req.GetInputToOutput(); link != nil {
		if _, ok := wf.outputs[link.GetOutputName()]; !ok {
			return status.Errorf(codes.InvalidArgument, "workflow %q has no output %q", token, link.GetOutputName())
		}
		if _, ok := other.inputs[link.GetInputName()]; !ok {
			return status.Errorf(codes.InvalidArgument, "workflow %q has no input %q", otherToken, link.GetInputName())
		}
		added = append(added, Connection{From: link.GetOutputName(), To: link.GetInputName(), With: otherToken})
	} else {
		for _, name := range sortedKeys(wf.outputs) {
			if _, ok := other.inputs[name]; ok {
				added = append(added, Connection{From: name, To: name, With: otherToken})
			}
		}
	}

	for name := range other.inputs {
		wf.inputs[name] = struct{}{}
	}
	for name := range other.outputs {
		wf.outputs[name] = struct{}{}
	}
	wf.connections = append(wf.connections, other.connections...)
	wf.connections = append(wf.connections, added...)
	return nil
}

// Delete drops the handle. Deleting an unknown handle is NotFound.
func (e *Engine) Delete(_ context.Context, req *workflowpb.RemoteWorkflow) (*emptypb.Empty, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deletes++

	err := e.takeFailure(MethodDelete)
	if err == nil {
		if _, ok := e.handles[req.GetToken()]; !ok {
			err = status.Errorf(codes.NotFound, "workflow %q not found", req.GetToken())
		} else {
			delete(e.handles, req.GetToken())
		}
	}
	e.served(MethodDelete, err)
	if err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (e *Engine) served(method string, err error) {
	code := status.Code(err).String()
	e.metrics.EngineServed(method, code, len(e.handles))
	e.logger.Debug("engine call",
		"method", method,
		"code", code,
		"live", len(e.handles),
	)
}

// Requests returns copies of every chain request received, in order.
func (e *Engine) Requests() []*workflowpb.ChainRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*workflowpb.ChainRequest, len(e.requests))
	for i, req := range e.requests {
		out[i] = cloneChainRequest(req)
	}
	return out
}

// Live returns the tokens of handles not yet deleted, sorted.
func (e *Engine) Live() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.handles))
	for token := range e.handles {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Deletes counts delete calls received, including failed ones.
func (e *Engine) Deletes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deletes
}

// Lookup returns a snapshot of the handle.
func (e *Engine) Lookup(token string) (Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.handles[token]
	if !ok {
		return Handle{}, false
	}
	return snapshot(token, g), true
}

// Handles returns snapshots of every live handle, sorted by token.
func (e *Engine) Handles() []Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Handle, 0, len(e.handles))
	for token, g := range e.handles {
		out = append(out, snapshot(token, g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

func snapshot(token string, g *graph) Handle {
	return Handle{
		Token:       token,
		Inputs:      sortedKeys(g.inputs),
		Outputs:     sortedKeys(g.outputs),
		Connections: append([]Connection(nil), g.connections...),
	}
}

// Register adds the engine to a gRPC server built with workflowpb.NewServer.
func (e *Engine) Register(s grpc.ServiceRegistrar) {
	workflowpb.RegisterRemoteWorkflowServiceServer(s, e)
}

func cloneChainRequest(req *workflowpb.ChainRequest) *workflowpb.ChainRequest {
	if req == nil {
		return nil
	}
	out := &workflowpb.ChainRequest{
		Wf:            req.GetWf().Clone(),
		WfToChainWith: req.GetWfToChainWith().Clone(),
	}
	if link := req.GetInputToOutput(); link != nil {
		out.InputToOutput = &workflowpb.InputToOutputChainRequest{
			OutputName: link.GetOutputName(),
			InputName:  link.GetInputName(),
		}
	}
	return out
}
