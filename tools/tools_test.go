package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// scriptedTool fails until calls reaches failures, then succeeds.
type scriptedTool struct {
	BaseTool
	name     string
	failures int32
	failWith ToolResult
	goErr    error
	calls    atomic.Int32
}

func (t *scriptedTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        t.name,
		Description: "scripted",
		Parameters: []ToolParameter{
			{Name: "input", ParamType: "string", Description: "anything", Required: true},
			{Name: "limit", ParamType: "integer", Description: "optional limit"},
		},
	}
}

func (t *scriptedTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	n := t.calls.Add(1)
	if n <= t.failures {
		if t.goErr != nil {
			return ToolResult{}, t.goErr
		}
		return t.failWith, nil
	}
	return SuccessResult("ok"), nil
}

type invalidTool struct {
	scriptedTool
}

func (t *invalidTool) Validate(args json.RawMessage) error {
	return errors.New("missing input")
}

type blockingTool struct {
	BaseTool
}

func (blockingTool) Metadata() ToolMetadata { return ToolMetadata{Name: "block"} }

func (blockingTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	<-ctx.Done()
	return ToolResult{}, ctx.Err()
}

func fastExecutor(retries uint32) *Executor {
	e := NewExecutor(ToolConfig{MaxRetries: retries})
	e.baseDelay = time.Millisecond
	return e
}

func TestToolResultMarshalJSON(t *testing.T) {
	ok, err := json.Marshal(SuccessResult("done"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(ok) != `{"success":true,"output":"done"}` {
		t.Errorf("unexpected JSON: %s", ok)
	}

	failed, err := json.Marshal(FailureResultf("bad %s", "thing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(failed) != `{"success":false,"output":"","error":"bad thing"}` {
		t.Errorf("unexpected JSON: %s", failed)
	}
}

func TestToolResultContent(t *testing.T) {
	if got := SuccessResult("passages").Content(); got != "passages" {
		t.Errorf("unexpected content: %q", got)
	}
	if got := FailureResult(errors.New("boom")).Content(); got != "Error: boom" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestToolConfigDefaults(t *testing.T) {
	var zero ToolConfig
	if zero.Timeout() != 30*time.Second || zero.Retries() != 3 {
		t.Errorf("unexpected zero-value defaults: %v %d", zero.Timeout(), zero.Retries())
	}
	var nilCfg *ToolConfig
	if nilCfg.Retries() != 3 {
		t.Error("nil config should use defaults")
	}
	cfg := ToolConfig{TimeoutSecs: 5, MaxRetries: 1}
	if cfg.Timeout() != 5*time.Second || cfg.Retries() != 1 {
		t.Errorf("unexpected values: %v %d", cfg.Timeout(), cfg.Retries())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&scriptedTool{name: name}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := r.Register(&scriptedTool{name: "alpha"}); err == nil {
		t.Error("expected error for duplicate tool")
	}

	if r.Len() != 3 {
		t.Errorf("expected 3 tools, got %d", r.Len())
	}
	if !r.Has("mid") || r.Has("missing") {
		t.Error("Has returned wrong result")
	}
	if _, ok := r.Get("zeta"); !ok {
		t.Error("expected to find zeta")
	}

	if got := strings.Join(r.Names(), ","); got != "alpha,mid,zeta" {
		t.Errorf("Names should be sorted, got %s", got)
	}
	var order []string
	for _, tool := range r.All() {
		order = append(order, tool.Metadata().Name)
	}
	if got := strings.Join(order, ","); got != "zeta,alpha,mid" {
		t.Errorf("All should keep registration order, got %s", got)
	}
	if list := r.List(); len(list) != 3 || list[0].Name != "zeta" {
		t.Errorf("unexpected List: %v", list)
	}

	desc := r.Description()
	if !strings.Contains(desc, "Tool: zeta") || !strings.Contains(desc, "input (string): anything [required]") {
		t.Errorf("unexpected description:\n%s", desc)
	}
	if !strings.Contains(desc, "limit (integer): optional limit [optional]") {
		t.Errorf("description missing optional parameter:\n%s", desc)
	}
}

func TestExecutorRetriesUntilSuccess(t *testing.T) {
	tool := &scriptedTool{name: "flaky", failures: 2, failWith: FailureResultf("connection reset")}

	result, err := fastExecutor(3).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() || result.Output != "ok" {
		t.Errorf("expected success, got %+v", result)
	}
	if tool.calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", tool.calls.Load())
	}
}

func TestExecutorRetriesGoErrors(t *testing.T) {
	tool := &scriptedTool{name: "flaky", failures: 1, goErr: errors.New("transport closed")}

	result, err := fastExecutor(2).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Errorf("expected success after retry, got %+v", result)
	}
}

func TestExecutorGivesUp(t *testing.T) {
	tool := &scriptedTool{name: "broken", failures: 10, failWith: FailureResultf("server error 500")}

	result, err := fastExecutor(2).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error.Error(), "failed after 2 attempts") ||
		!strings.Contains(result.Error.Error(), "server error 500") {
		t.Errorf("unexpected error: %v", result.Error)
	}
	if tool.calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", tool.calls.Load())
	}
}

func TestExecutorDoesNotRetryNonRetryable(t *testing.T) {
	tool := &scriptedTool{name: "strict", failures: 10, failWith: FailureResultf("query cannot be empty")}

	result, err := fastExecutor(3).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() {
		t.Fatal("expected failure")
	}
	if tool.calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", tool.calls.Load())
	}
}

func TestExecutorValidatesFirst(t *testing.T) {
	tool := &invalidTool{scriptedTool{name: "invalid"}}

	result, err := fastExecutor(3).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() || !strings.Contains(result.Error.Error(), "validation failed") {
		t.Errorf("expected validation failure, got %+v", result)
	}
	if tool.calls.Load() != 0 {
		t.Errorf("Execute must not run after failed validation, got %d calls", tool.calls.Load())
	}
}

func TestExecutorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastExecutor(3).Execute(ctx, blockingTool{}, json.RawMessage(`{}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecutorAttemptTimeout(t *testing.T) {
	e := NewExecutor(ToolConfig{TimeoutSecs: 1, MaxRetries: 1})

	start := time.Now()
	result, err := e.Execute(context.Background(), blockingTool{}, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() {
		t.Error("expected timeout failure")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("attempt timeout not applied")
	}
}

func TestCalculateBackoff(t *testing.T) {
	e := NewDefaultExecutor()
	if got := e.calculateBackoff(1); got != 200*time.Millisecond {
		t.Errorf("unexpected backoff: %v", got)
	}
	if got := e.calculateBackoff(10); got != 5*time.Second {
		t.Errorf("backoff should be capped, got %v", got)
	}
}

func TestExecuteOnce(t *testing.T) {
	tool := &scriptedTool{name: "once", failures: 1, failWith: FailureResultf("network down")}

	result, err := ExecuteOnce(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() {
		t.Error("ExecuteOnce must not retry")
	}

	invalid := &invalidTool{scriptedTool{name: "invalid"}}
	result, _ = ExecuteOnce(context.Background(), invalid, json.RawMessage(`{}`))
	if result.Success() {
		t.Error("expected validation failure")
	}
}

func TestToolDefinitions(t *testing.T) {
	defs := ToolDefinitions([]Tool{&scriptedTool{name: "first"}, &scriptedTool{name: "second"}})
	if len(defs) != 2 || defs[0].Name != "first" || defs[1].Name != "second" {
		t.Fatalf("unexpected definitions: %+v", defs)
	}

	params := defs[0].Parameters
	if params["type"] != "object" {
		t.Errorf("unexpected schema type: %v", params["type"])
	}
	required, ok := params["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "input" {
		t.Errorf("unexpected required list: %#v", params["required"])
	}
	props := params["properties"].(map[string]interface{})
	limit := props["limit"].(map[string]interface{})
	if limit["type"] != "integer" {
		t.Errorf("unexpected limit schema: %v", limit)
	}

	if len(ToolDefinitions(nil)) != 0 {
		t.Error("expected no definitions for no tools")
	}
}
