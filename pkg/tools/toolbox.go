package tools

import (
	"context"
)

// Toolbox dispatches decoded calls to the web searcher and the workspace.
type Toolbox struct {
	search    *WebSearcher
	workspace *Workspace
}

func NewToolbox(search *WebSearcher, workspace *Workspace) *Toolbox {
	return &Toolbox{search: search, workspace: workspace}
}

func (t *Toolbox) Execute(ctx context.Context, call Call) Result {
	switch c := call.(type) {
	case WebSearch:
		if t.search == nil {
			return errorResult("web search is not configured")
		}
		return t.search.Search(ctx, c.Query)
	case Read:
		if t.workspace == nil {
			return errorResult("workspace is not configured")
		}
		return t.workspace.Read(c.Path)
	case Write:
		if t.workspace == nil {
			return errorResult("workspace is not configured")
		}
		return t.workspace.Write(c.Path, c.Content)
	default:
		return errorResult("%v: %T", ErrUnknownTool, call)
	}
}
