package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-deepsearch/pkg/llm"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid arguments")
)

type Name string

const (
	WebSearchTool Name = "web_search"
	ReadTool      Name = "read"
	WriteTool     Name = "write"
)

var known = []Name{WebSearchTool, ReadTool, WriteTool}

// Call is one decoded tool invocation. The set of implementations is closed:
// WebSearch, Read and Write.
type Call interface {
	Tool() Name
}

type WebSearch struct {
	Query string `json:"query"`
}

func (WebSearch) Tool() Name { return WebSearchTool }

type Read struct {
	Path string `json:"path"`
}

func (Read) Tool() Name { return ReadTool }

type Write struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (Write) Tool() Name { return WriteTool }

type Result struct {
	Content string `json:"content"`
	IsError bool   `json:"isError"`
}

func errorResult(format string, args ...any) Result {
	return Result{Content: "Error: " + fmt.Sprintf(format, args...), IsError: true}
}

// Executor runs decoded tool calls. Implementations never fail past this boundary:
// every problem is reported through Result.IsError.
type Executor interface {
	Execute(ctx context.Context, call Call) Result
}

// Decode validates a model-proposed tool call against the closed tool set.
func Decode(name string, args json.RawMessage) (Call, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch Name(name) {
	case WebSearchTool:
		var c WebSearch
		if err := json.Unmarshal(args, &c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
		}
		c.Query = strings.TrimSpace(c.Query)
		if c.Query == "" {
			return nil, fmt.Errorf("%w: %s: query is required", ErrInvalidArguments, name)
		}
		return c, nil
	case ReadTool:
		var c Read
		if err := json.Unmarshal(args, &c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
		}
		if strings.TrimSpace(c.Path) == "" {
			return nil, fmt.Errorf("%w: %s: path is required", ErrInvalidArguments, name)
		}
		return c, nil
	case WriteTool:
		var raw struct {
			Path    string  `json:"path"`
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(args, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
		}
		if strings.TrimSpace(raw.Path) == "" {
			return nil, fmt.Errorf("%w: %s: path is required", ErrInvalidArguments, name)
		}
		if raw.Content == nil {
			return nil, fmt.Errorf("%w: %s: content is required", ErrInvalidArguments, name)
		}
		return Write{Path: raw.Path, Content: *raw.Content}, nil
	default:
		return nil, fmt.Errorf("%w %q, available tools: %s", ErrUnknownTool, name, availableTools())
	}
}

func availableTools() string {
	names := make([]string, 0, len(known))
	for _, n := range known {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

// Encode renders a call back into model tool-call arguments.
func Encode(call Call) json.RawMessage {
	b, _ := json.Marshal(call)
	return b
}

// Schemas describes the tools offered to the executing model.
func Schemas() []llm.ToolSchema {
	return []llm.ToolSchema{
		{
			Name:        string(WebSearchTool),
			Description: "Search the web for current information. Returns TOP 3 most relevant results with summaries. Avoid searching for similar queries repeatedly.",
			Parameters: llm.Schema{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": `Concise search query with keywords only. Remove filler words. Example: "Next.js 14 app router middleware auth"`,
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        string(ReadTool),
			Description: "Read a file from the project directory",
			Parameters: llm.Schema{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "Relative path to the file to read"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        string(WriteTool),
			Description: "Write content to a file in the project directory (restricted to project root)",
			Parameters: llm.Schema{
				"type": "object",
				"properties": map[string]any{
					"path":    map[string]any{"type": "string", "description": "Relative path where the file should be written"},
					"content": map[string]any{"type": "string", "description": "Content to write to the file"},
				},
				"required": []string{"path", "content"},
			},
		},
	}
}
