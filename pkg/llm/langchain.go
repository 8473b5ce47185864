package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain calls any langchaingo model through the LanguageModel contract.
type LangChain struct {
	model llms.Model
	opts  []llms.CallOption
}

func NewLangChain(model llms.Model, opts ...llms.CallOption) *LangChain {
	return &LangChain{model: model, opts: opts}
}

// NewOpenAI builds an adapter for an OpenAI-compatible endpoint such as OpenRouter.
func NewOpenAI(baseURL, apiKey, model string) (*LangChain, error) {
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return NewLangChain(m), nil
}

func (l *LangChain) Call(ctx context.Context, req Request) (Response, error) {
	opts := append([]llms.CallOption{}, l.opts...)
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(toTools(req.Tools)), llms.WithToolChoice(toToolChoice(req.ToolChoice)))
	}

	res, err := l.model.GenerateContent(ctx, toMessageContent(req), opts...)
	if err != nil {
		return Response{}, fmt.Errorf("generate content: %w", err)
	}
	if res == nil || len(res.Choices) == 0 || res.Choices[0] == nil {
		return Response{}, ErrNoChoices
	}
	return fromChoice(res.Choices[0]), nil
}

func toMessageContent(req Request) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case Assistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, mc)
		case Tool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				}},
			})
		default:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		}
	}
	return out
}

func toTools(schemas []ToolSchema) []llms.Tool {
	out := make([]llms.Tool, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  map[string]any(s.Parameters),
			},
		})
	}
	return out
}

func toToolChoice(c ToolChoice) any {
	if c.Auto() {
		return "auto"
	}
	return llms.ToolChoice{
		Type:     "function",
		Function: &llms.FunctionReference{Name: c.Name},
	}
}

func fromChoice(c *llms.ContentChoice) Response {
	res := Response{Content: c.Content, FinishReason: c.StopReason}
	for _, tc := range c.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		args := json.RawMessage(tc.FunctionCall.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		} else if !json.Valid(args) {
			// keep malformed arguments as a JSON string so decoding fails at the tool boundary
			args, _ = json.Marshal(tc.FunctionCall.Arguments)
		}
		res.ToolCalls = append(res.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: args,
		})
	}
	return res
}
