package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

const (
	responseIntro = "You are a chat assistant that responds given an OpenAPI spec, a chat history, and a designated response type."

	classifierIntro = "You are a chat assistant that helps preprocess a user's message. Given an OpenAPI spec and a chat history, your job is to classify what kind of response is best."

	classifierOutro = "Only respond with the number of the response that fits best and nothing else."

	planOutro = `Only respond with the JSON of the plan and nothing else. The JSON should have format:

{
    "requests": [
        {
            "method": DELETE/GET/POST/PUT,
            "path": The endpoint path beginning with a forward slash,
            "description": Description of the purpose of this request as part of the plan
        }
    ]
}`

	materializeIntro = "Your job is to construct the HTTP request for the current step of a plan. Use the OpenAPI spec, the plan, and the responses of the requests already made to fill in the request's query parameters and JSON body."

	materializeOutro = `Respond concisely with only the JSON of the request and nothing else. The JSON should have format:

{
    "method": DELETE/GET/POST/PUT,
    "path": The endpoint path beginning with a forward slash,
    "params": Mapping of query parameter names to their values,
    "body": Mapping of JSON body parameter names to their values
}`

	summaryIntro = "You are a chat assistant that informs a user what actions were performed by concisely summarizing HTTP request-responses made in response to a user's request. If a response indicates an error, describe the error, apologize, and then ask the user to try again."
)

// Class is the kind of reply the classifier picked for a chat turn.
type Class int

const (
	Unfulfillable Class = iota + 1
	FollowUp
	Answer
	AnswerWithDraftRequests
	PartiallyAnswerWithRequests
	AnswerWithRequests
)

var classes = []Class{
	Unfulfillable,
	FollowUp,
	Answer,
	AnswerWithDraftRequests,
	PartiallyAnswerWithRequests,
	AnswerWithRequests,
}

func (c Class) String() string {
	switch c {
	case Unfulfillable:
		return "unfulfillable"
	case FollowUp:
		return "follow_up"
	case Answer:
		return "answer"
	case AnswerWithDraftRequests:
		return "answer_with_draft_requests"
	case PartiallyAnswerWithRequests:
		return "partially_answer_with_requests"
	case AnswerWithRequests:
		return "answer_with_requests"
	default:
		return "unknown"
	}
}

// Description tells the model how to reply for the class.
func (c Class) Description() string {
	switch c {
	case Unfulfillable:
		return "Unfulfillable: the user's message cannot accurately be responded to by an answer or fulfilled by HTTP request(s). It's best to notify the user."
	case FollowUp:
		return "Follow-up: the user's message cannot be fulfilled by an answer or HTTP request(s). It's best to follow-up to seek clarification."
	case Answer:
		return "Answer: the user's message is clear and can be answered directly without HTTP request(s). It's best to concisely answer."
	case AnswerWithDraftRequests:
		return "Answer with draft HTTP request(s): the user's message indicates they want an action to be performed with HTTP request(s), but the HTTP request(s) could benefit from user clarifications and/or updates. It's best to show a draft of the HTTP request(s) to the user and seek their input and confirmation."
	case PartiallyAnswerWithRequests:
		return "Partially answer with HTTP request(s): the user's message is clear and can be accurately fulfilled with HTTP request(s), but it's best to only partially fulfill those HTTP request(s) to make sure the user understands exactly what they're requesting. This is good for scenarios where the user is requesting a lot of changes like deleting or adding a lot of resources, and it's best to retrieve the resources first so the user can confirm."
	case AnswerWithRequests:
		return "Answer with HTTP request(s): the user's message is clear and can be accurately fulfilled with HTTP request(s). It's best to make the HTTP request(s) and summarize those requests and their respective responses to the user. This is good for scenarios where the user is requesting small changes like deleting or adding one or two resources."
	default:
		return ""
	}
}

// Executes reports whether the class runs the plan loop.
func (c Class) Executes() bool {
	return c == PartiallyAnswerWithRequests || c == AnswerWithRequests
}

// ParseClass reads the classifier's reply, a single digit.
func ParseClass(text string) (Class, error) {
	text = strings.TrimSpace(text)
	if len(text) != 1 || text[0] < '1' || text[0] > byte('0'+len(classes)) {
		return 0, types.UpstreamParse(fmt.Errorf("classifier: expected a digit between 1 and %d, got %q", len(classes), text))
	}
	return Class(text[0] - '0'), nil
}

// Step is one planned request.
type Step struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Request is a materialized plan step.
type Request struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Params map[string]any `json:"params"`
	Body   map[string]any `json:"body"`
}

// JSON renders the request the way it is shown to the model.
func (r Request) JSON() string {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("%s %s", r.Method, r.Path)
	}
	return string(out)
}

// Exchange is one executed request with the text of its response.
type Exchange struct {
	Request  string
	Response string
}

func (e Exchange) String() string {
	return "Request:\n" + e.Request + "\n\nResponse:\n" + e.Response
}

func specSection(spec string) string {
	return "Here is the OpenAPI spec for reference:\n\n" + spec
}

// ClassifierPrompt lists every class after the OpenAPI document.
func ClassifierPrompt(spec string) string {
	var b strings.Builder
	b.WriteString(classifierIntro)
	b.WriteString("\n\n")
	b.WriteString(specSection(spec))
	b.WriteString("\n\nAnd here are your classification options:\n")
	for _, c := range classes {
		fmt.Fprintf(&b, "\n%d. %s", int(c), c.Description())
	}
	b.WriteString("\n\n")
	b.WriteString(classifierOutro)
	return b.String()
}

// ResponsePrompt is used for classes that reply without running requests.
func ResponsePrompt(spec string, c Class) string {
	return responseIntro + "\n\n" + specSection(spec) + "\n\nAnd here is how you should respond:\n\n" + c.Description()
}

// PlanPrompt asks for the ordered requests that fulfill the turn.
func PlanPrompt(spec string, c Class) string {
	return ResponsePrompt(spec, c) + "\n\n" + planOutro
}

// MaterializePrompt asks for the concrete request of the current step.
func MaterializePrompt(spec string, plan []Step, executed []Exchange, current Step) string {
	var b strings.Builder
	b.WriteString(materializeIntro)
	b.WriteString("\n\n")
	b.WriteString(specSection(spec))
	b.WriteString("\n\nHere is the plan:\n")
	for i, s := range plan {
		fmt.Fprintf(&b, "\n%d. %s %s: %s", i+1, s.Method, s.Path, s.Description)
	}
	if len(executed) > 0 {
		b.WriteString("\n\nHere are the HTTP request-responses made so far:\n")
		for _, e := range executed {
			b.WriteString("\n")
			b.WriteString(e.String())
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\n\nHere is the current step:\n\n%s %s: %s", current.Method, current.Path, current.Description)
	b.WriteString("\n\n")
	b.WriteString(materializeOutro)
	return b.String()
}

// SummaryPrompt carries every executed exchange.
func SummaryPrompt(executed []Exchange) string {
	var b strings.Builder
	b.WriteString(summaryIntro)
	b.WriteString("\n\nHere are the HTTP request-responses:\n")
	for _, e := range executed {
		b.WriteString("\n")
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

// StepMessage is the synthetic user turn that introduces a plan step.
func StepMessage(previous string, current Step) string {
	if previous == "" {
		return "Description: " + current.Description
	}
	return "Previous response:\n" + previous + "\n\nDescription: " + current.Description
}

// RequestFormat pins the method and path of a materialized request to the
// planned step.
func RequestFormat(step Step) map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name": "request",
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "The endpoint path beginning with a forward slash",
						"enum":        []string{step.Path},
					},
					"method": map[string]any{
						"type":        "string",
						"description": "The HTTP method to use for the request",
						"enum":        []string{step.Method},
					},
					"params": map[string]any{
						"type":        "object",
						"description": "Mapping of query parameter names to their values",
					},
					"body": map[string]any{
						"type":        "object",
						"description": "Mapping of JSON body parameter names to their values",
					},
				},
				"additionalProperties": false,
				"required":             []string{"path", "method", "params", "body"},
			},
		},
	}
}

// withSystem prepends a system prompt to the chat history.
func withSystem(prompt string, history []llm.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt})
	return append(messages, history...)
}
