package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	client "github.com/mutablelogic/go-client"
)

// DefaultCount is the number of results requested when count <= 0.
const DefaultCount = 5

// Entry is one vector store match returned by Query.
type Entry struct {
	ID        string         `json:"id"`
	Score     float64        `json:"score"`
	Namespace string         `json:"namespace,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Text returns the passage stored with the entry.
// The artifact under meta["artifact"] is either a JSON-encoded string or an
// object; its "value" is the text. Falls back to meta["text"] and meta["content"].
func (e Entry) Text() string {
	if e.Meta == nil {
		return ""
	}

	switch artifact := e.Meta["artifact"].(type) {
	case string:
		var decoded struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal([]byte(artifact), &decoded); err == nil && decoded.Value != "" {
			return decoded.Value
		}
		return artifact
	case map[string]any:
		if v, ok := artifact["value"].(string); ok {
			return v
		}
	}

	for _, key := range []string{"text", "content"} {
		if v, ok := e.Meta[key].(string); ok {
			return v
		}
	}
	return ""
}

type queryRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type queryResponse struct {
	Entries []Entry `json:"entries"`
}

type searchResponse struct {
	Response []string `json:"response"`
}

// Query runs a vector query against a knowledge base.
func (c *Client) Query(ctx context.Context, knowledgeBaseID, query string, count int) ([]Entry, error) {
	payload, err := client.NewJSONRequest(queryRequest{Query: query, Count: resultCount(count)})
	if err != nil {
		return nil, err
	}

	var response queryResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("knowledge-bases", knowledgeBaseID, "query")); err != nil {
		return nil, fmt.Errorf("query knowledge base %s: %w", knowledgeBaseID, err)
	}
	return response.Entries, nil
}

// Search runs a text search against a knowledge base and returns the passages.
// This is the endpoint for hybrid and text knowledge bases.
func (c *Client) Search(ctx context.Context, knowledgeBaseID, query string, count int) ([]string, error) {
	payload, err := client.NewJSONRequest(queryRequest{Query: query, Count: resultCount(count)})
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("knowledge-bases", knowledgeBaseID, "search")); err != nil {
		return nil, fmt.Errorf("search knowledge base %s: %w", knowledgeBaseID, err)
	}
	return response.Response, nil
}

func resultCount(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	return count
}
