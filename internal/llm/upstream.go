package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/theogognf/toi/internal/config"
	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/pkg/types"
)

// maxErrorBody caps how much of a failed upstream response is echoed back.
const maxErrorBody = 4 << 10

// Upstream is one configured model service: a base URL, default headers,
// default query params and a JSON body template, behind a circuit breaker.
type Upstream struct {
	name     string
	baseURL  string
	params   url.Values
	template map[string]any
	client   *http.Client
	breaker  *CircuitBreaker
	metrics  *metrics.Metrics
}

// headerTransport installs default headers on every outgoing request
// without overriding headers the request already carries.
type headerTransport struct {
	headers http.Header
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.headers {
		if req.Header.Get(k) == "" {
			req.Header[k] = vs
		}
	}
	return t.next.RoundTrip(req)
}

// NewUpstream builds the long-lived HTTP client for one model service.
// m may be nil.
func NewUpstream(name string, cfg config.UpstreamConfig, m *metrics.Metrics) (*Upstream, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%s: invalid base_url: %w", name, err)
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	params := make(url.Values, len(cfg.Params))
	for k, v := range cfg.Params {
		params.Set(k, v)
	}

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	u := &Upstream{
		name:     name,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		params:   params,
		template: cfg.JSON,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &headerTransport{headers: headers, next: http.DefaultTransport},
		},
		metrics: m,
	}
	u.breaker = NewCircuitBreakerWithConfig(name, CircuitBreakerConfig{
		OnStateChange: func(name string, state gobreaker.State) {
			m.SetBreakerState(name, int(state))
		},
	})
	m.SetBreakerState(name, int(gobreaker.StateClosed))
	return u, nil
}

// Breaker exposes the upstream's circuit breaker.
func (u *Upstream) Breaker() *CircuitBreaker { return u.breaker }

// endpoint joins the base URL, path and default query params.
func (u *Upstream) endpoint(path string) string {
	target := u.baseURL + path
	if len(u.params) > 0 {
		target += "?" + u.params.Encode()
	}
	return target
}

// body merges operation fields over the configured JSON template.
func (u *Upstream) body(fields map[string]any) ([]byte, error) {
	merged := make(map[string]any, len(u.template)+len(fields))
	for k, v := range u.template {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, types.Validation("invalid %s request body: %v", u.name, err)
	}
	return data, nil
}

// post sends a JSON request and returns the response when the status is
// 2xx. The caller owns the response body.
func (u *Upstream) post(ctx context.Context, operation, path string, fields map[string]any) (*http.Response, error) {
	data, err := u.body(fields)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := Execute(ctx, u.breaker, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(path), bytes.NewReader(data))
		if err != nil {
			return nil, types.Validation("invalid %s request: %v", u.name, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := u.client.Do(req)
		if err != nil {
			return nil, types.UpstreamConnection(fmt.Errorf("%s: failed to send request: %w", u.name, err))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			_ = resp.Body.Close()
			return nil, types.UpstreamConnection(fmt.Errorf("%s returned status %d: %s", u.name, resp.StatusCode, strings.TrimSpace(string(body))))
		}
		return resp, nil
	})
	u.metrics.ObserveUpstream(u.name, operation, err, time.Since(start))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("upstream", u.name).Str("operation", operation).Msg("upstream request failed")
		return nil, err
	}
	return resp, nil
}

// postJSON sends a request and decodes the whole response into out.
func (u *Upstream) postJSON(ctx context.Context, operation, path string, fields map[string]any, out any) error {
	resp, err := u.post(ctx, operation, path, fields)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.UpstreamParse(fmt.Errorf("%s: failed to decode response: %w", u.name, err))
	}
	return nil
}
