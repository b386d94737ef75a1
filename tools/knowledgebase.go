// Knowledge base retrieval tool.
//
// Information Hiding:
// - Retrieval backend hidden behind Retriever
// - Tool naming rules hidden behind the constructors
// - Passage formatting hidden in Execute

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/richinex/kbagent/catalog"
)

const (
	knowledgeBaseToolPrefix = "search_"
	maxToolNameLength       = 64

	noResultsMessage   = "No relevant information found in the knowledge base."
	companyDescription = "Contains information about the company and its operations"
)

// Retriever returns text passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// KnowledgeBaseTool searches a single knowledge base.
type KnowledgeBaseTool struct {
	name        string
	description string
	retriever   Retriever
}

var _ Tool = (*KnowledgeBaseTool)(nil)

// NewCatalogKnowledgeBaseTool creates the tool for a knowledge base listed in the catalog.
func NewCatalogKnowledgeBaseTool(rec catalog.Record, r Retriever) *KnowledgeBaseTool {
	return &KnowledgeBaseTool{
		name:        knowledgeBaseToolPrefix + slug(rec.Name),
		description: fmt.Sprintf("%s: Contains specialized information and documents from %s", rec.Name, rec.OrgURL),
		retriever:   r,
	}
}

// NewUnknownKnowledgeBaseTool creates the tool for an id the catalog does not know.
// position is 1-based and matches the id's place in the selection.
func NewUnknownKnowledgeBaseTool(position int, r Retriever) *KnowledgeBaseTool {
	return &KnowledgeBaseTool{
		name:        fmt.Sprintf("search_knowledge_base_%d", position),
		description: fmt.Sprintf("Knowledge base #%d: Contains specialized information and documents", position),
		retriever:   r,
	}
}

// NewCompanyKnowledgeBaseTool creates the tool used by the single knowledge base chat.
func NewCompanyKnowledgeBaseTool(r Retriever) *KnowledgeBaseTool {
	return &KnowledgeBaseTool{
		name:        "search_company_knowledge_base",
		description: companyDescription,
		retriever:   r,
	}
}

// WithSuffix returns a copy of t named <name>_<n>, trimmed to the tool name limit.
func (t *KnowledgeBaseTool) WithSuffix(n int) *KnowledgeBaseTool {
	suffix := fmt.Sprintf("_%d", n)
	name := t.name
	if len(name)+len(suffix) > maxToolNameLength {
		name = strings.TrimRight(name[:maxToolNameLength-len(suffix)], "_")
	}
	c := *t
	c.name = name + suffix
	return &c
}

// Metadata returns the tool metadata.
func (t *KnowledgeBaseTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        t.name,
		Description: t.description,
		Parameters: []ToolParameter{
			{Name: "query", ParamType: "string", Description: "Natural language search query", Required: true},
		},
	}
}

type knowledgeBaseArgs struct {
	Query string `json:"query"`
}

func parseKnowledgeBaseArgs(args json.RawMessage) (knowledgeBaseArgs, error) {
	var a knowledgeBaseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	a.Query = strings.TrimSpace(a.Query)
	if a.Query == "" {
		return a, fmt.Errorf("query cannot be empty")
	}
	return a, nil
}

// Validate validates the arguments.
func (t *KnowledgeBaseTool) Validate(args json.RawMessage) error {
	_, err := parseKnowledgeBaseArgs(args)
	return err
}

// Execute retrieves passages and returns them as a numbered list.
func (t *KnowledgeBaseTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	a, err := parseKnowledgeBaseArgs(args)
	if err != nil {
		return FailureResult(err), nil
	}

	passages, err := t.retriever.Retrieve(ctx, a.Query)
	if err != nil {
		return FailureResult(fmt.Errorf("knowledge base search failed: %w", err)), nil
	}
	if len(passages) == 0 {
		return SuccessResult(noResultsMessage), nil
	}

	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, strings.TrimSpace(p))
	}
	return SuccessResult(b.String()), nil
}

// slug lowercases name and replaces runs of other characters with one underscore.
func slug(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	s := b.String()
	if s == "" {
		s = "knowledge_base"
	}
	if max := maxToolNameLength - len(knowledgeBaseToolPrefix); len(s) > max {
		s = strings.TrimRight(s[:max], "_")
	}
	return s
}
