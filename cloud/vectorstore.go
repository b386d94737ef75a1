package cloud

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Retrieval modes for VectorStore.
const (
	ModeQuery  = "query"
	ModeSearch = "search"
)

// VectorStore retrieves passages from a single knowledge base.
//
// In query mode errors are returned to the caller. In search mode a failed
// request is logged and yields no passages.
type VectorStore struct {
	client          *Client
	knowledgeBaseID string
	mode            string
	count           int
	log             zerolog.Logger
}

// NewVectorStore binds a client to one knowledge base.
// An empty mode means ModeQuery; count <= 0 means DefaultCount.
func NewVectorStore(c *Client, knowledgeBaseID, mode string, count int, log zerolog.Logger) (*VectorStore, error) {
	switch mode {
	case "":
		mode = ModeQuery
	case ModeQuery, ModeSearch:
	default:
		return nil, fmt.Errorf("unknown retrieval mode %q", mode)
	}
	return &VectorStore{
		client:          c,
		knowledgeBaseID: knowledgeBaseID,
		mode:            mode,
		count:           resultCount(count),
		log:             log,
	}, nil
}

// KnowledgeBaseID returns the bound knowledge base id.
func (v *VectorStore) KnowledgeBaseID() string {
	return v.knowledgeBaseID
}

// Mode returns the retrieval mode.
func (v *VectorStore) Mode() string {
	return v.mode
}

// Retrieve returns the passages matching query, best first.
// Entries without text are skipped.
func (v *VectorStore) Retrieve(ctx context.Context, query string) ([]string, error) {
	if v.mode == ModeSearch {
		texts, err := v.client.Search(ctx, v.knowledgeBaseID, query, v.count)
		if err != nil {
			v.log.Warn().Err(err).Str("knowledge_base", v.knowledgeBaseID).Msg("search failed")
			return nil, nil
		}
		return texts, nil
	}

	entries, err := v.client.Query(ctx, v.knowledgeBaseID, query, v.count)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		if t := e.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}
