// Hosted thread conversation storage.
//
// Information Hiding:
// - Mapping between chat history and thread input/output pairs
// - Incremental append (only exchanges not yet on the thread are sent)

package storage

import (
	"context"
	"fmt"

	"github.com/richinex/kbagent/cloud"
	"github.com/richinex/kbagent/llm"
)

// ThreadClient is the subset of the cloud API used by CloudStorage.
// *cloud.Client satisfies it.
type ThreadClient interface {
	Threads(ctx context.Context) ([]cloud.Thread, error)
	DeleteThread(ctx context.Context, id string) error
	Messages(ctx context.Context, threadID string) ([]cloud.Message, error)
	AppendMessage(ctx context.Context, threadID string, msg cloud.Message) (cloud.Message, error)
}

// CloudStorage implements ConversationStorage over hosted threads.
// A thread stores exchanges, not messages: each user message and the
// assistant reply that follows it become one thread message. System and tool
// messages are not persisted, and a trailing unanswered user message is dropped.
type CloudStorage struct {
	client ThreadClient
}

// NewCloudStorage creates thread-backed storage.
func NewCloudStorage(client ThreadClient) *CloudStorage {
	return &CloudStorage{client: client}
}

// Save appends the exchanges in history that the thread does not have yet.
// History is assumed to extend what Load returned.
func (s *CloudStorage) Save(ctx context.Context, threadID string, history []llm.ChatMessage) error {
	existing, err := s.client.Messages(ctx, threadID)
	if err != nil {
		return err
	}

	exchanges := toExchanges(history)
	if len(exchanges) < len(existing) {
		return fmt.Errorf("thread %s has %d messages, history only %d: refusing to rewrite", threadID, len(existing), len(exchanges))
	}

	for _, msg := range exchanges[len(existing):] {
		if _, err := s.client.AppendMessage(ctx, threadID, msg); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the thread as alternating user and assistant messages.
func (s *CloudStorage) Load(ctx context.Context, threadID string) ([]llm.ChatMessage, error) {
	messages, err := s.client.Messages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	history := make([]llm.ChatMessage, 0, 2*len(messages))
	for _, m := range messages {
		history = append(history, llm.UserMessage(m.Input), llm.AssistantMessage(m.Output))
	}
	return history, nil
}

// Delete deletes the thread.
func (s *CloudStorage) Delete(ctx context.Context, threadID string) error {
	return s.client.DeleteThread(ctx, threadID)
}

// ListSessions lists thread ids.
func (s *CloudStorage) ListSessions(ctx context.Context) ([]string, error) {
	threads, err := s.client.Threads(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}
	return ids, nil
}

// Exists checks whether a thread with this id is listed.
func (s *CloudStorage) Exists(ctx context.Context, threadID string) (bool, error) {
	ids, err := s.ListSessions(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == threadID {
			return true, nil
		}
	}
	return false, nil
}

// toExchanges pairs each user message with the next assistant message.
func toExchanges(history []llm.ChatMessage) []cloud.Message {
	var result []cloud.Message
	var input string
	pending := false

	for _, msg := range history {
		switch msg.Role {
		case llm.RoleUser:
			input = msg.Content
			pending = true
		case llm.RoleAssistant:
			if !pending || len(msg.ToolCalls) > 0 {
				continue
			}
			result = append(result, cloud.Message{Input: input, Output: msg.Content})
			pending = false
		}
	}
	return result
}

// Verify CloudStorage implements ConversationStorage
var (
	_ ConversationStorage = (*CloudStorage)(nil)
	_ ThreadClient        = (*cloud.Client)(nil)
)
