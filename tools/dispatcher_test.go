package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/dom"
	"github.com/jonwraymond/domquery/observe"
	"github.com/jonwraymond/domquery/query"
	"github.com/jonwraymond/domquery/resilience"
)

func TestDispatcher_Tools(t *testing.T) {
	f := newFixture(t)

	var names []string
	for _, tool := range f.d.Tools() {
		names = append(names, tool.Meta.Name)
		if tool.Description == "" {
			t.Errorf("%s has no description", tool.Meta.Name)
		}
	}
	want := []string{CacheStatus, ClearCache, QueryDOM}
	if len(names) != len(want) {
		t.Fatalf("Tools() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Tools()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Call(context.Background(), "screenshot", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("error = %v, want %v", err, ErrUnknownTool)
	}
}

// blockingSource blocks until ctx ends or release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingSource) Document(ctx context.Context) (dom.Document, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return nil, ErrNoDocument
	}
}

func newBlockedDispatcher(src DocumentSource, opts ...DispatcherOption) *Dispatcher {
	store := cache.NewMemoryCache(cache.DefaultPolicy())
	return NewDispatcher(query.New(store), store, src, opts...)
}

func TestDispatcher_Timeout(t *testing.T) {
	src := newBlockingSource()
	d := newBlockedDispatcher(src, WithExecutor(resilience.NewExecutor(
		resilience.WithTimeout(20*time.Millisecond),
	)))

	_, err := d.Call(context.Background(), QueryDOM, json.RawMessage(`{"selector":"p"}`))
	if !errors.Is(err, resilience.ErrTimeout) {
		t.Errorf("error = %v, want %v", err, resilience.ErrTimeout)
	}
}

func TestDispatcher_BulkheadFull(t *testing.T) {
	src := newBlockingSource()
	d := newBlockedDispatcher(src, WithExecutor(resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 1})),
	)))

	done := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), QueryDOM, json.RawMessage(`{"selector":"p"}`))
		done <- err
	}()
	<-src.started

	_, err := d.Call(context.Background(), CacheStatus, nil)
	if !errors.Is(err, resilience.ErrBulkheadFull) {
		t.Errorf("second call error = %v, want %v", err, resilience.ErrBulkheadFull)
	}

	close(src.release)
	if err := <-done; !errors.Is(err, ErrNoDocument) {
		t.Errorf("first call error = %v, want %v", err, ErrNoDocument)
	}
}

func TestDispatcher_RateLimited(t *testing.T) {
	f := newFixture(t, WithExecutor(resilience.NewExecutor(
		resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 0.01, Burst: 1})),
	)))

	if _, err := f.d.Call(context.Background(), CacheStatus, nil); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	_, err := f.d.Call(context.Background(), CacheStatus, nil)
	if !errors.Is(err, resilience.ErrRateLimitExceeded) {
		t.Errorf("second call error = %v, want %v", err, resilience.ErrRateLimitExceeded)
	}
}

func TestDispatcher_CallID(t *testing.T) {
	var seen []string
	src := DocumentSourceFunc(func(ctx context.Context) (dom.Document, error) {
		seen = append(seen, observe.CallID(ctx))
		return nil, ErrNoDocument
	})
	d := newBlockedDispatcher(src)
	n := 0
	d.newID = func() string {
		n++
		return []string{"call-1", "call-2"}[n-1]
	}

	for range 2 {
		_, _ = d.Call(context.Background(), QueryDOM, json.RawMessage(`{"selector":"p"}`))
	}
	if len(seen) != 2 || seen[0] != "call-1" || seen[1] != "call-2" {
		t.Errorf("call IDs = %v, want [call-1 call-2]", seen)
	}
}

func TestDispatcher_Telemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	var logs bytes.Buffer

	tel := observe.Telemetry{
		Tracer: observe.NewTracer(provider.Tracer("test")),
		Logger: observe.NewLoggerWithWriter("info", &logs),
	}
	f := newFixture(t, WithTelemetry(tel))
	f.d.newID = func() string { return "call-42" }

	f.call(t, QueryDOM, `{"selector":"button"}`)

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "tool.call.query_dom" {
		t.Fatalf("spans = %v, want one tool.call.query_dom", spans)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("log line: %v\n%s", err, logs.String())
	}
	if entry["tool"] != QueryDOM || entry["call_id"] != "call-42" {
		t.Errorf("log entry = %v, want tool=%s call_id=call-42", entry, QueryDOM)
	}
}
