package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    string
		want    Call
		wantErr error
	}{
		{name: "web search", tool: "web_search", args: `{"query":"  go generics  "}`, want: WebSearch{Query: "go generics"}},
		{name: "empty query", tool: "web_search", args: `{"query":"   "}`, wantErr: ErrInvalidArguments},
		{name: "read", tool: "read", args: `{"path":"README.md"}`, want: Read{Path: "README.md"}},
		{name: "read without path", tool: "read", args: `{}`, wantErr: ErrInvalidArguments},
		{name: "write empty content", tool: "write", args: `{"path":"a.txt","content":""}`, want: Write{Path: "a.txt"}},
		{name: "write missing content", tool: "write", args: `{"path":"a.txt"}`, wantErr: ErrInvalidArguments},
		{name: "malformed", tool: "web_search", args: `{"query":`, wantErr: ErrInvalidArguments},
		{name: "unknown", tool: "delete", args: `{}`, wantErr: ErrUnknownTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.tool, json.RawMessage(tt.args))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_EmptyArguments(t *testing.T) {
	_, err := Decode("web_search", nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestEncode(t *testing.T) {
	call, err := Decode("web_search", Encode(WebSearch{Query: "rust async"}))
	require.NoError(t, err)
	assert.Equal(t, WebSearch{Query: "rust async"}, call)
}

func TestSchemas(t *testing.T) {
	schemas := Schemas()
	require.Len(t, schemas, 3)
	assert.Equal(t, "web_search", schemas[0].Name)
	assert.Equal(t, []string{"query"}, schemas[0].Parameters["required"])
}
