package llm

import "context"

// MockClient is a test double for Client.
type MockClient struct {
	CompleteFunc func(ctx context.Context, conv []Message, tools []ToolDefinition) (*Completion, error)
	TitleFunc    func(ctx context.Context, text string) (string, error)
}

func (m *MockClient) Complete(ctx context.Context, conv []Message, tools []ToolDefinition) (*Completion, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, conv, tools)
	}
	return &Completion{Content: "mock response"}, nil
}

func (m *MockClient) Title(ctx context.Context, text string) (string, error) {
	if m.TitleFunc != nil {
		return m.TitleFunc(ctx, text)
	}
	return "Mock Title", nil
}
