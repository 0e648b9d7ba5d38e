package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/domquery/observe"
	"github.com/jonwraymond/domquery/query"
	"github.com/jonwraymond/domquery/resilience"
)

// Dispatcher routes tool calls by name.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every call carries a fresh call ID readable with observe.CallID.
//   - Errors: ErrUnknownTool for unregistered names, ErrInvalidInput for bad
//     arguments, resilience errors when a guard rejects the call; engine
//     errors are returned unchanged.
type Dispatcher struct {
	tools   map[string]Tool
	tel     observe.Telemetry
	exec    *resilience.Executor
	newID   func() string
	execute observe.ExecuteFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTelemetry reports calls through tel.
func WithTelemetry(tel observe.Telemetry) DispatcherOption {
	return func(d *Dispatcher) {
		d.tel = tel
	}
}

// WithExecutor runs calls through exec.
func WithExecutor(exec *resilience.Executor) DispatcherOption {
	return func(d *Dispatcher) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// NewDispatcher registers query_dom, clear_cache and cache_status.
func NewDispatcher(engine *query.Engine, store Store, docs DocumentSource, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tel:   observe.NopTelemetry(),
		exec:  resilience.NewExecutor(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.tel = d.tel.OrNop()

	d.tools = make(map[string]Tool, 3)
	for _, t := range []Tool{
		queryTool(engine, docs),
		clearTool(store),
		statusTool(store),
	} {
		d.tools[t.Meta.Name] = t
	}

	d.execute = observe.NewMiddleware(d.tel).Wrap(d.run)
	return d
}

// Tools returns the registered tools sorted by name.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta.Name < out[j].Meta.Name })
	return out
}

// Call runs the named tool on input.
func (d *Dispatcher) Call(ctx context.Context, name string, input json.RawMessage) (any, error) {
	tool, ok := d.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	ctx = observe.WithCallID(ctx, d.newID())
	return d.execute(ctx, tool.Meta, input)
}

// run executes one call under the resilience guards. A timed-out handler
// may still be running when run returns, so its output is guarded.
func (d *Dispatcher) run(ctx context.Context, meta observe.ToolMeta, input json.RawMessage) (any, error) {
	handler := d.tools[meta.Name].Handler

	var (
		mu  sync.Mutex
		out any
	)
	err := d.exec.Execute(ctx, func(ctx context.Context) error {
		res, err := handler(ctx, input)
		if err != nil {
			return err
		}
		mu.Lock()
		out = res
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return out, nil
}
