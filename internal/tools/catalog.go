package tools

import "github.com/ravanos/chatd/internal/llm"

// Catalog returns the fixed tool descriptors declared to the model. The
// catalog is identical across all requests within a deployment.
func Catalog() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        "get_doctypes",
			Description: "Get a list of all available DocTypes in RavanOS",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_doctype_fields",
			Description: "Get the list of fields for a specific DocType in RavanOS",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"doctype": map[string]any{
						"type":        "string",
						"description": "The DocType to get fields for (e.g., 'Customer', 'Item').",
					},
				},
				"required": []string{"doctype"},
			},
		},
		{
			Name:        "get_documents",
			Description: "Get a list of documents for a specific DocType in RavanOS",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"doctype": map[string]any{
						"type":        "string",
						"description": "The DocType to get documents from (e.g., 'Customer', 'Item').",
					},
					"fields": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Optional. List of fields to include in the response.",
					},
					"filters": map[string]any{
						"type":        "object",
						"description": "Optional. Filters to apply, in the format {field: value}.",
					},
					"limit": map[string]any{
						"type":        "number",
						"description": "Optional. Maximum number of documents to return.",
					},
				},
				"required": []string{"doctype"},
			},
		},
	}
}
