package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

const testSpec = `{"openapi":"3.1.0"}`

func TestParseClass(t *testing.T) {
	tests := []struct {
		in      string
		want    Class
		wantErr bool
	}{
		{in: "1", want: Unfulfillable},
		{in: " 5\n", want: PartiallyAnswerWithRequests},
		{in: "6", want: AnswerWithRequests},
		{in: "0", wantErr: true},
		{in: "7", wantErr: true},
		{in: "", wantErr: true},
		{in: "66", wantErr: true},
		{in: "six", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClass(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.KindUpstreamParse, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassExecutes(t *testing.T) {
	for _, c := range classes {
		want := c == PartiallyAnswerWithRequests || c == AnswerWithRequests
		assert.Equal(t, want, c.Executes(), c.String())
		assert.NotEmpty(t, c.Description())
	}
}

func TestClassifierPrompt(t *testing.T) {
	prompt := ClassifierPrompt(testSpec)

	assert.True(t, strings.HasPrefix(prompt, classifierIntro+"\n\nHere is the OpenAPI spec for reference:\n\n"+testSpec+"\n\n"))
	assert.True(t, strings.HasSuffix(prompt, "\n\n"+classifierOutro))
	for i, c := range classes {
		assert.Contains(t, prompt, "\n"+string(rune('1'+i))+". "+c.Description())
	}
	assert.Equal(t, prompt, ClassifierPrompt(testSpec))
}

func TestPlanPrompt(t *testing.T) {
	prompt := PlanPrompt(testSpec, AnswerWithRequests)

	assert.Equal(t,
		responseIntro+"\n\nHere is the OpenAPI spec for reference:\n\n"+testSpec+
			"\n\nAnd here is how you should respond:\n\n"+AnswerWithRequests.Description()+
			"\n\n"+planOutro,
		prompt)
}

func TestMaterializePrompt(t *testing.T) {
	plan := []Step{
		{Method: "POST", Path: "/contacts/search", Description: "Find Marky"},
		{Method: "PUT", Path: "/contacts", Description: "Update the phone"},
	}
	executed := []Exchange{{Request: `{"method":"POST"}`, Response: `[{"id":3}]`}}

	prompt := MaterializePrompt(testSpec, plan, executed, plan[1])
	assert.Contains(t, prompt, "Here is the plan:\n\n1. POST /contacts/search: Find Marky\n2. PUT /contacts: Update the phone")
	assert.Contains(t, prompt, "Request:\n{\"method\":\"POST\"}\n\nResponse:\n[{\"id\":3}]")
	assert.Contains(t, prompt, "Here is the current step:\n\nPUT /contacts: Update the phone")
	assert.True(t, strings.HasSuffix(prompt, materializeOutro))

	first := MaterializePrompt(testSpec, plan, nil, plan[0])
	assert.NotContains(t, first, "made so far")
}

func TestSummaryPrompt(t *testing.T) {
	prompt := SummaryPrompt([]Exchange{
		{Request: "a", Response: "b"},
		{Request: "c", Response: "404 Not Found\n{}"},
	})
	assert.Equal(t,
		summaryIntro+"\n\nHere are the HTTP request-responses:\n"+
			"\nRequest:\na\n\nResponse:\nb\n"+
			"\nRequest:\nc\n\nResponse:\n404 Not Found\n{}\n",
		prompt)
}

func TestStepMessage(t *testing.T) {
	step := Step{Description: "Create the note"}
	assert.Equal(t, "Description: Create the note", StepMessage("", step))
	assert.Equal(t, "Previous response:\n{}\n\nDescription: Create the note", StepMessage("{}", step))
}

func TestRequestFormatPinsStep(t *testing.T) {
	format := RequestFormat(Step{Method: "PUT", Path: "/todos"})
	schema := format["json_schema"].(map[string]any)["schema"].(map[string]any)
	props := schema["properties"].(map[string]any)

	assert.Equal(t, []string{"/todos"}, props["path"].(map[string]any)["enum"])
	assert.Equal(t, []string{"PUT"}, props["method"].(map[string]any)["enum"])
	assert.Equal(t, "object", props["body"].(map[string]any)["type"])
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestWithSystem(t *testing.T) {
	history := []llm.Message{{Role: llm.RoleUser, Content: "hi"}}
	got := withSystem("rules", history)
	require.Len(t, got, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "rules"}, got[0])
	assert.Equal(t, history[0], got[1])
	assert.Len(t, history, 1)
}
