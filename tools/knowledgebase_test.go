package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/richinex/kbagent/catalog"
)

type fakeRetriever struct {
	passages []string
	err      error
	queries  []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	f.queries = append(f.queries, query)
	return f.passages, f.err
}

func TestCatalogKnowledgeBaseToolMetadata(t *testing.T) {
	rec := catalog.Record{ID: "f88d9d45-f25e-4051-8a84-a8d7873622b8", Name: "Blossom Analysis", OrgURL: "https://blossomanalysis.com"}
	meta := NewCatalogKnowledgeBaseTool(rec, &fakeRetriever{}).Metadata()

	if meta.Name != "search_blossom_analysis" {
		t.Errorf("unexpected name: %q", meta.Name)
	}
	want := "Blossom Analysis: Contains specialized information and documents from https://blossomanalysis.com"
	if meta.Description != want {
		t.Errorf("unexpected description: %q", meta.Description)
	}
	if len(meta.Parameters) != 1 || meta.Parameters[0].Name != "query" || !meta.Parameters[0].Required {
		t.Errorf("unexpected parameters: %+v", meta.Parameters)
	}
}

func TestUnknownKnowledgeBaseToolMetadata(t *testing.T) {
	meta := NewUnknownKnowledgeBaseTool(3, &fakeRetriever{}).Metadata()

	if meta.Name != "search_knowledge_base_3" {
		t.Errorf("unexpected name: %q", meta.Name)
	}
	if meta.Description != "Knowledge base #3: Contains specialized information and documents" {
		t.Errorf("unexpected description: %q", meta.Description)
	}
}

func TestCompanyKnowledgeBaseToolMetadata(t *testing.T) {
	meta := NewCompanyKnowledgeBaseTool(&fakeRetriever{}).Metadata()
	if meta.Description != "Contains information about the company and its operations" {
		t.Errorf("unexpected description: %q", meta.Description)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MAPS", "maps"},
		{"Psychedelics Today", "psychedelics_today"},
		{"  Lucid -- News!  ", "lucid_news"},
		{"Café 24/7", "caf_24_7"},
		{"???", "knowledge_base"},
		{strings.Repeat("a", 80), strings.Repeat("a", 57)},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKnowledgeBaseToolWithSuffix(t *testing.T) {
	base := NewCatalogKnowledgeBaseTool(catalog.Record{ID: "a", Name: "A-B"}, nil)
	other := NewCatalogKnowledgeBaseTool(catalog.Record{ID: "b", Name: "A B"}, nil)
	if base.Metadata().Name != other.Metadata().Name {
		t.Fatalf("expected colliding names, got %q and %q", base.Metadata().Name, other.Metadata().Name)
	}

	renamed := other.WithSuffix(2)
	if got := renamed.Metadata().Name; got != "search_a_b_2" {
		t.Errorf("unexpected suffixed name: %q", got)
	}
	if other.Metadata().Name != "search_a_b" {
		t.Error("WithSuffix must not modify the original tool")
	}
	if renamed.Metadata().Description != other.Metadata().Description {
		t.Error("WithSuffix should keep the description")
	}

	long := NewCatalogKnowledgeBaseTool(catalog.Record{ID: "c", Name: strings.Repeat("a", 80)}, nil)
	got := long.WithSuffix(12).Metadata().Name
	if len(got) != maxToolNameLength || !strings.HasSuffix(got, "_12") {
		t.Errorf("suffixed name should stay within %d chars: %q (%d)", maxToolNameLength, got, len(got))
	}
}

func TestKnowledgeBaseToolValidate(t *testing.T) {
	tool := NewCompanyKnowledgeBaseTool(&fakeRetriever{})

	tests := []struct {
		name    string
		args    string
		wantErr bool
	}{
		{"valid", `{"query":"mdma trials"}`, false},
		{"empty query", `{"query":""}`, true},
		{"blank query", `{"query":"   "}`, true},
		{"missing query", `{}`, true},
		{"invalid json", `{invalid}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tool.Validate(json.RawMessage(tt.args))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKnowledgeBaseToolExecuteNumbersPassages(t *testing.T) {
	r := &fakeRetriever{passages: []string{"first passage ", "second passage"}}
	tool := NewUnknownKnowledgeBaseTool(1, r)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"  psilocybin  "}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("unexpected failure: %v", result.Error)
	}
	if result.Output != "1. first passage\n\n2. second passage" {
		t.Errorf("unexpected output: %q", result.Output)
	}
	if len(r.queries) != 1 || r.queries[0] != "psilocybin" {
		t.Errorf("query not trimmed before retrieval: %v", r.queries)
	}
}

func TestKnowledgeBaseToolExecuteNoResults(t *testing.T) {
	tool := NewUnknownKnowledgeBaseTool(1, &fakeRetriever{})

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"anything"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() || result.Output != noResultsMessage {
		t.Errorf("expected a successful no-results answer, got %+v", result)
	}
}

func TestKnowledgeBaseToolExecuteFailures(t *testing.T) {
	r := &fakeRetriever{err: errors.New("status 503")}
	tool := NewUnknownKnowledgeBaseTool(1, r)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"anything"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() || !strings.Contains(result.Error.Error(), "status 503") {
		t.Errorf("expected retrieval failure, got %+v", result)
	}

	result, _ = tool.Execute(context.Background(), json.RawMessage(`{"query":""}`))
	if result.Success() || !strings.Contains(result.Error.Error(), "empty") {
		t.Errorf("expected empty query failure, got %+v", result)
	}
	if len(r.queries) != 1 {
		t.Errorf("empty query must not reach the retriever, got %v", r.queries)
	}
}

func TestKnowledgeBaseToolThroughExecutor(t *testing.T) {
	r := &fakeRetriever{passages: []string{"answer"}}
	tool := NewCompanyKnowledgeBaseTool(r)

	result, err := fastExecutor(3).Execute(context.Background(), tool, json.RawMessage(`{"query":"who"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content() != "1. answer" {
		t.Errorf("unexpected content: %q", result.Content())
	}
}
