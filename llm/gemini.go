// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config
// - JSON schema to Gemini schema conversion
// - Streaming via official SDK iterator

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	initErr     error // returned on first use
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(cfg ProviderConfig) *GeminiProvider {
	p := &GeminiProvider{
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		p.initErr = fmt.Errorf("failed to initialize Gemini client: %w", err)
		return p
	}
	p.client = client
	return p
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the current model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

// ChatWithTools sends a chat completion request with tool definitions.
func (p *GeminiProvider) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error) {
	if err := p.ready(); err != nil {
		return LLMResponse{}, err
	}

	contents, systemInstruction := convertToGeminiMessages(messages)
	config := p.generateConfig(systemInstruction)
	config.Tools = convertToGeminiTools(tools)

	response, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	var toolCalls []ToolCall
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
			if part.FunctionCall != nil {
				argsJSON, _ := json.Marshal(part.FunctionCall.Args)
				id := part.FunctionCall.ID
				if id == "" {
					id = part.FunctionCall.Name
				}
				toolCalls = append(toolCalls, ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: argsJSON,
				})
			}
		}
	}

	if content == "" && len(toolCalls) == 0 {
		return LLMResponse{}, fmt.Errorf("empty response from Gemini")
	}

	return LLMResponse{Content: content, ToolCalls: toolCalls, Usage: geminiUsage(response)}, nil
}

// StreamChat streams a chat completion.
func (p *GeminiProvider) StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	contents, systemInstruction := convertToGeminiMessages(messages)
	config := p.generateConfig(systemInstruction)

	var usage *TokenUsage
	for response, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, config) {
		if err != nil {
			return usage, fmt.Errorf("stream error: %w", err)
		}

		if u := geminiUsage(response); u != nil {
			usage = u
		}

		if text := response.Text(); text != "" {
			select {
			case chunks <- text:
			case <-ctx.Done():
				return usage, ctx.Err()
			}
		}
	}

	return usage, nil
}

func (p *GeminiProvider) ready() error {
	if p.initErr != nil {
		return p.initErr
	}
	if p.client == nil {
		return fmt.Errorf("gemini client not initialized")
	}
	return nil
}

func (p *GeminiProvider) generateConfig(systemInstruction string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		MaxOutputTokens: p.maxTokens,
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	return config
}

func geminiUsage(response *genai.GenerateContentResponse) *TokenUsage {
	if response == nil || response.UsageMetadata == nil {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
		CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
	}
}

// convertToGeminiMessages converts our ChatMessage to Gemini format,
// carrying tool calls and tool responses. The system message is returned separately.
func convertToGeminiMessages(messages []ChatMessage) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemInstruction string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemInstruction = msg.Content
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
				continue
			}
			content := &genai.Content{Role: genai.RoleModel}
			if msg.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal(tc.Arguments, &args)
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: tc.Name,
						Args: args,
					},
				})
			}
			contents = append(contents, content)
		case RoleTool:
			name := msg.ToolName
			if name == "" {
				name = msg.ToolCallID
			}
			var result map[string]any
			_ = json.Unmarshal([]byte(msg.Content), &result)
			if result == nil {
				result = map[string]any{"result": msg.Content}
			}
			// Gemini expects tool results from the user role
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     name,
						Response: result,
					},
				}},
			})
		}
	}

	return contents, systemInstruction
}

// convertToGeminiTools converts tool definitions to Gemini format.
func convertToGeminiTools(tools []ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertToGeminiSchema(t.Parameters),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertToGeminiSchema converts a JSON schema map to a Gemini schema.
// Arrays get a default string item type since Gemini requires one.
func convertToGeminiSchema(params map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeObject}

	if t, ok := params["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}
	if d, ok := params["description"].(string); ok {
		schema.Description = d
	}

	switch req := params["required"].(type) {
	case []string:
		schema.Required = req
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if props, ok := params["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]interface{}); ok {
				schema.Properties[name] = convertToGeminiSchema(propMap)
			}
		}
	}

	if schema.Type == genai.TypeArray {
		if items, ok := params["items"].(map[string]interface{}); ok {
			schema.Items = convertToGeminiSchema(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	}

	return schema
}

// mapToGeminiType maps JSON schema type to Gemini type.
func mapToGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
