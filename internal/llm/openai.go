package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ravanos/chatd/internal/logging"
)

// titlePrompt is the instruction for the secondary title-generation call.
const titlePrompt = "Generate a short, descriptive title (max 4 words) for this conversation. Only return the title."

// OpenAIConfig configures the OpenAI-backed model gateway client.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	TitleModel  string // defaults to Model
	Temperature float64
}

// OpenAIClient implements Client against an OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	api         openai.Client
	model       string
	titleModel  string
	temperature float64
	log         *logging.Logger
}

// NewOpenAIClient creates a model gateway client from config.
func NewOpenAIClient(cfg OpenAIConfig, log *logging.Logger) *OpenAIClient {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	titleModel := cfg.TitleModel
	if titleModel == "" {
		titleModel = cfg.Model
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	return &OpenAIClient{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		titleModel:  titleModel,
		temperature: temperature,
		log:         log.Sub("llm"),
	}
}

var _ Client = (*OpenAIClient)(nil)

// Complete submits the conversation and tool catalog and maps the response
// to either a final answer or a set of tool-call requests.
func (c *OpenAIClient) Complete(ctx context.Context, conv []Message, tools []ToolDefinition) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toOpenAIMessages(conv),
		Temperature: openai.Float(c.temperature),
	}
	if len(tools) > 0 {
		params.Tools = toOpenAITools(tools)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response contained no choices", ErrGatewayUnavailable)
	}

	msg := resp.Choices[0].Message
	out := &Completion{
		Content: msg.Content,
		Model:   resp.Model,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.log.Debug().
		Str("model", resp.Model).
		Int("toolCalls", len(out.ToolCalls)).
		Msg("completion received")
	return out, nil
}

// Title runs the secondary short-title call.
func (c *OpenAIClient) Title(ctx context.Context, text string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.titleModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(titlePrompt),
			openai.UserMessage(text),
		},
		MaxCompletionTokens: openai.Int(20),
		Temperature:         openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrGatewayUnavailable)
	}
	return strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`), nil
}

func toOpenAIMessages(conv []Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(conv))
	for _, m := range conv {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				msgs = append(msgs, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case RoleTool:
			msgs = append(msgs, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

func toOpenAITools(tools []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  openai.FunctionParameters(t.Parameters),
				},
			},
		}
	}
	return out
}
