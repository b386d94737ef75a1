package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/richinex/kbagent/cloud"
	"github.com/richinex/kbagent/llm"
)

// fakeThreads is an in-process ThreadClient.
type fakeThreads struct {
	mu       sync.Mutex
	threads  map[string][]cloud.Message
	order    []string
	appended int
	fail     error
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{threads: map[string][]cloud.Message{}}
}

func (f *fakeThreads) Threads(_ context.Context) ([]cloud.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []cloud.Thread{}
	for _, id := range f.order {
		if _, ok := f.threads[id]; ok {
			result = append(result, cloud.Thread{ID: id})
		}
	}
	return result, nil
}

func (f *fakeThreads) DeleteThread(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.threads, id)
	return nil
}

func (f *fakeThreads) Messages(_ context.Context, threadID string) ([]cloud.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]cloud.Message{}, f.threads[threadID]...), nil
}

func (f *fakeThreads) AppendMessage(_ context.Context, threadID string, msg cloud.Message) (cloud.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.threads[threadID]; !ok {
		f.order = append(f.order, threadID)
	}
	msg.Index = len(f.threads[threadID])
	f.threads[threadID] = append(f.threads[threadID], msg)
	f.appended++
	return msg, nil
}

func TestCloudStorageAppendsOnlyNewExchanges(t *testing.T) {
	fake := newFakeThreads()
	storage := NewCloudStorage(fake)
	ctx := context.Background()

	history := exchange("one", "1")
	if err := storage.Save(ctx, "th", history); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	history = append(history, exchange("two", "2")...)
	if err := storage.Save(ctx, "th", history); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if fake.appended != 2 {
		t.Errorf("expected 2 appends, got %d", fake.appended)
	}
}

func TestCloudStorageSkipsToolTraffic(t *testing.T) {
	fake := newFakeThreads()
	storage := NewCloudStorage(fake)
	ctx := context.Background()

	call := llm.ToolCall{ID: "c1", Name: "search_maps"}
	history := []llm.ChatMessage{
		llm.SystemMessage("rules"),
		llm.UserMessage("What is MAPS?"),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}},
		llm.ToolResultMessage(call, "1. passage"),
		llm.AssistantMessage("MAPS is a research org."),
		llm.UserMessage("unanswered"),
	}
	if err := storage.Save(ctx, "th", history); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	msgs := fake.threads["th"]
	if len(msgs) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(msgs))
	}
	if msgs[0].Input != "What is MAPS?" || msgs[0].Output != "MAPS is a research org." {
		t.Errorf("unexpected exchange: %+v", msgs[0])
	}
}

func TestCloudStorageRefusesShorterHistory(t *testing.T) {
	fake := newFakeThreads()
	storage := NewCloudStorage(fake)
	ctx := context.Background()

	history := append(exchange("one", "1"), exchange("two", "2")...)
	if err := storage.Save(ctx, "th", history); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Save(ctx, "th", exchange("one", "1")); err == nil {
		t.Error("expected error when history is shorter than the thread")
	}
}

func TestCloudStoragePropagatesErrors(t *testing.T) {
	fake := newFakeThreads()
	fake.fail = errors.New("unavailable")
	storage := NewCloudStorage(fake)

	if _, err := storage.Load(context.Background(), "th"); err == nil {
		t.Error("expected Load error")
	}
	if err := storage.Save(context.Background(), "th", exchange("q", "a")); err == nil {
		t.Error("expected Save error")
	}
}
