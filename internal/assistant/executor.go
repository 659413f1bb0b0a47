package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/theogognf/toi/pkg/types"
)

// RequestExecutor sends a materialized request and returns the response
// text.
type RequestExecutor interface {
	Execute(ctx context.Context, req Request) (string, error)
}

// Executor sends materialized requests back to this server over loopback.
type Executor struct {
	client *resty.Client
}

// NewExecutor creates an executor for baseURL, e.g. "http://127.0.0.1:6969".
func NewExecutor(baseURL string, timeout time.Duration) *Executor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetAllowGetMethodPayload(true).
		SetTimeout(timeout)
	return &Executor{client: client}
}

// Execute sends req. Responses outside 2xx are not errors: their status
// line and body become the response text so the model can narrate them.
func (e *Executor) Execute(ctx context.Context, req Request) (string, error) {
	r := e.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(encodeParams(req.Params))
	if len(req.Body) > 0 || (req.Method != http.MethodGet && req.Method != http.MethodDelete) {
		body := req.Body
		if body == nil {
			body = map[string]any{}
		}
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return "", types.UpstreamConnection(fmt.Errorf("loopback %s %s: %w", req.Method, req.Path, err))
	}
	if resp.IsError() {
		return resp.Status() + "\n" + resp.String(), nil
	}
	return resp.String(), nil
}

// encodeParams turns JSON values into a query string. Arrays repeat the
// key, scalars are written without quotes and objects are sent as JSON.
func encodeParams(params map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []any:
			for _, item := range v {
				if s, ok := scalar(item); ok {
					values.Add(k, s)
				}
			}
		default:
			if s, ok := scalar(v); ok {
				values.Add(k, s)
			}
		}
	}
	return values
}

func scalar(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}
