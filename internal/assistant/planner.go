package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

var allowedMethods = map[string]bool{
	http.MethodDelete: true,
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
}

func checkTarget(method, path string) (string, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if !allowedMethods[method] {
		return "", types.UpstreamParse(fmt.Errorf("unsupported method %q", method))
	}
	if !strings.HasPrefix(path, "/") {
		return "", types.UpstreamParse(fmt.Errorf("path %q must begin with a forward slash", path))
	}
	return method, nil
}

type planReply struct {
	Requests []Step `json:"requests"`
}

// classify asks which kind of reply fits the turn.
func (a *Assistant) classify(ctx context.Context, history []llm.Message) (Class, error) {
	reply, err := a.model.Generate(ctx, llm.GenerationRequest{
		Messages: withSystem(ClassifierPrompt(a.spec), history),
	})
	if err != nil {
		return 0, err
	}
	return ParseClass(reply)
}

// plan asks for the requests that fulfill the turn, in order.
func (a *Assistant) plan(ctx context.Context, class Class, history []llm.Message) ([]Step, error) {
	reply, err := a.model.Generate(ctx, llm.GenerationRequest{
		Messages: withSystem(PlanPrompt(a.spec, class), history),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := llm.DecodeJSON[planReply](reply)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	for i := range parsed.Requests {
		step := &parsed.Requests[i]
		method, err := checkTarget(step.Method, step.Path)
		if err != nil {
			return nil, fmt.Errorf("planner: step %d: %w", i+1, err)
		}
		step.Method = method
	}
	return parsed.Requests, nil
}

// materialize fills in the parameters and body of one planned step.
func (a *Assistant) materialize(ctx context.Context, plan []Step, executed []Exchange, current Step, history []llm.Message) (Request, error) {
	reply, err := a.model.Generate(ctx, llm.GenerationRequest{
		Messages:       withSystem(MaterializePrompt(a.spec, plan, executed, current), history),
		ResponseFormat: RequestFormat(current),
	})
	if err != nil {
		return Request{}, err
	}

	req, err := llm.DecodeJSON[Request](reply)
	if err != nil {
		return Request{}, fmt.Errorf("materializer: %w", err)
	}
	method, err := checkTarget(req.Method, req.Path)
	if err != nil {
		return Request{}, fmt.Errorf("materializer: %w", err)
	}
	req.Method = method
	if req.Params == nil {
		req.Params = map[string]any{}
	}
	if req.Body == nil {
		req.Body = map[string]any{}
	}
	return req, nil
}
