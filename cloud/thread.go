package cloud

import (
	"context"
	"fmt"

	client "github.com/mutablelogic/go-client"
)

// Thread is a conversation thread.
type Thread struct {
	ID        string         `json:"thread_id"`
	Name      string         `json:"name"`
	Alias     string         `json:"alias,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// Message is one input/output exchange on a thread.
type Message struct {
	ID       string         `json:"message_id,omitempty"`
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Index    int            `json:"index,omitempty"`
}

type createThreadRequest struct {
	Name string `json:"name"`
}

type threadsResponse struct {
	Threads []Thread `json:"threads"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

type appendMessageRequest struct {
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateThread creates a new empty thread.
func (c *Client) CreateThread(ctx context.Context, name string) (Thread, error) {
	payload, err := client.NewJSONRequest(createThreadRequest{Name: name})
	if err != nil {
		return Thread{}, err
	}

	var thread Thread
	if err := c.DoWithContext(ctx, payload, &thread, client.OptPath("threads")); err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

// Threads lists the threads visible to the API key.
func (c *Client) Threads(ctx context.Context) ([]Thread, error) {
	var response threadsResponse
	if err := c.DoWithContext(ctx, nil, &response, client.OptPath("threads")); err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return response.Threads, nil
}

// Thread fetches a thread by id.
func (c *Client) Thread(ctx context.Context, id string) (Thread, error) {
	var thread Thread
	if err := c.DoWithContext(ctx, nil, &thread, client.OptPath("threads", id)); err != nil {
		return Thread{}, fmt.Errorf("get thread %s: %w", id, err)
	}
	return thread, nil
}

// DeleteThread deletes a thread and its messages.
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	if err := c.DoWithContext(ctx, client.MethodDelete, nil, client.OptPath("threads", id)); err != nil {
		return fmt.Errorf("delete thread %s: %w", id, err)
	}
	return nil
}

// Messages returns the messages of a thread in order.
func (c *Client) Messages(ctx context.Context, threadID string) ([]Message, error) {
	var response messagesResponse
	if err := c.DoWithContext(ctx, nil, &response, client.OptPath("threads", threadID, "messages")); err != nil {
		return nil, fmt.Errorf("list messages for thread %s: %w", threadID, err)
	}
	return response.Messages, nil
}

// AppendMessage adds an input/output exchange to a thread.
func (c *Client) AppendMessage(ctx context.Context, threadID string, msg Message) (Message, error) {
	payload, err := client.NewJSONRequest(appendMessageRequest{
		Input:    msg.Input,
		Output:   msg.Output,
		Metadata: msg.Metadata,
	})
	if err != nil {
		return Message{}, err
	}

	var created Message
	if err := c.DoWithContext(ctx, payload, &created, client.OptPath("threads", threadID, "messages")); err != nil {
		return Message{}, fmt.Errorf("append message to thread %s: %w", threadID, err)
	}
	return created, nil
}
