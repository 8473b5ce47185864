// Package llm defines the language-model boundary used by every agent: one request/response
// call with optional tool schemas, plus an adapter onto langchaingo models.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoChoices is returned when the provider answered without any completion.
var ErrNoChoices = errors.New("llm: no choices in response")

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
	Tool      Role = "tool"
)

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Schema is a JSON schema object.
type Schema map[string]any

type ToolSchema struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// ToolChoice selects how the model may use the offered tools. The zero value is "auto".
type ToolChoice struct {
	Name string
}

func (c ToolChoice) Auto() bool {
	return c.Name == ""
}

// Force requires the model to call the named tool.
func Force(name string) ToolChoice {
	return ToolChoice{Name: name}
}

type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
	ToolChoice   ToolChoice
}

type Response struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"toolCalls"`
	FinishReason string     `json:"finishReason"`
}

// FindToolCall returns the first tool call with the given name.
func (r Response) FindToolCall(name string) (ToolCall, bool) {
	for _, tc := range r.ToolCalls {
		if tc.Name == name {
			return tc, true
		}
	}
	return ToolCall{}, false
}

type LanguageModel interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to LanguageModel.
type Func func(ctx context.Context, req Request) (Response, error)

func (f Func) Call(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) Message {
	return Message{Role: User, Content: content}
}
