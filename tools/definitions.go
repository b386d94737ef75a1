package tools

import "github.com/richinex/kbagent/llm"

// ToolDefinitions converts tool metadata into JSON-schema tool definitions
// in the order given.
func ToolDefinitions(tools []Tool) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, len(tools))
	for i, t := range tools {
		meta := t.Metadata()
		params := make(map[string]interface{}, len(meta.Parameters))
		required := []string{}
		for _, p := range meta.Parameters {
			params[p.Name] = map[string]interface{}{
				"type":        p.ParamType,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		defs[i] = llm.ToolDefinition{
			Name:        meta.Name,
			Description: meta.Description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": params,
				"required":   required,
			},
		}
	}
	return defs
}
