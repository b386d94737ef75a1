// Package cloud implements a client for the hosted knowledge base API:
// knowledge base retrieval, rulesets and conversation threads.
//
// Information Hiding:
// - Endpoint layout (<base>/api/...) and bearer authentication
// - Wire formats for entries, rules and thread messages
// - Pagination-free listing (the first page is enough for the CLI)
package cloud

import (
	"errors"
	"strings"

	client "github.com/mutablelogic/go-client"
)

// Client is an API client for the knowledge base service.
// Safe for concurrent use.
type Client struct {
	*client.Client
	baseURL string
}

var (
	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("cloud: API key not set")
	// ErrNotFound is returned when a lookup by alias or id matches nothing.
	ErrNotFound = errors.New("cloud: not found")
)

// New creates a client for the service at baseURL (e.g. https://cloud.griptape.ai).
// Extra options (trace, timeout) are applied after the endpoint and token.
func New(baseURL, apiKey string, opts ...client.ClientOpt) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	baseURL = strings.TrimRight(baseURL, "/")

	opts = append([]client.ClientOpt{
		client.OptEndpoint(baseURL + "/api"),
		client.OptReqToken(client.Token{Scheme: client.Bearer, Value: apiKey}),
	}, opts...)

	c, err := client.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Client: c, baseURL: baseURL}, nil
}

// BaseURL returns the service root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}
