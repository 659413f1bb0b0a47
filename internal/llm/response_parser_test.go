package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theogognf/toi/pkg/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantJSON string
	}{
		{
			name:     "plain JSON object",
			input:    `{"key": "value"}`,
			wantJSON: `{"key": "value"}`,
		},
		{
			name:     "JSON with markdown code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			wantJSON: `{"key": "value"}`,
		},
		{
			name:     "JSON with surrounding text",
			input:    "Here is the plan:\n{\"requests\": []}\nLet me know!",
			wantJSON: `{"requests": []}`,
		},
		{
			name:     "nested JSON object",
			input:    `{"outer": {"inner": "value"}} trailing`,
			wantJSON: `{"outer": {"inner": "value"}}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"text": "a } b { c"}`,
			wantJSON: `{"text": "a } b { c"}`,
		},
		{
			name:     "escaped quotes in string",
			input:    `{"text": "He said \"hello}\""}`,
			wantJSON: `{"text": "He said \"hello}\""}`,
		},
		{
			name:     "no JSON present",
			input:    "  just some text  ",
			wantJSON: "just some text",
		},
		{
			name:     "unterminated object",
			input:    `{"key": "value"`,
			wantJSON: `{"key": "value"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantJSON, ExtractJSON(tt.input))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type plan struct {
		Requests []struct {
			Method string `json:"method"`
		} `json:"requests"`
	}

	got, err := DecodeJSON[plan]("```json\n{\"requests\": [{\"method\": \"GET\"}]}\n```")
	require.NoError(t, err)
	require.Len(t, got.Requests, 1)
	assert.Equal(t, "GET", got.Requests[0].Method)

	_, err = DecodeJSON[plan]("I cannot help with that.")
	require.Error(t, err)
	assert.Equal(t, types.KindUpstreamParse, types.KindOf(err))
}
