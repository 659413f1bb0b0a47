// Package assistant turns a chat turn into calls against the service's own
// HTTP surface and streams back a reply.
//
// A turn is classified first. Classes that do not run requests get a single
// streamed reply. Classes that do are planned, each planned step is
// materialized into a concrete request and sent over loopback in order, and
// the executed request-responses are summarized as a stream.
package assistant

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/pkg/types"
)

// Assistant runs chat turns.
type Assistant struct {
	model    llm.ChatModel
	executor RequestExecutor
	spec     string
	metrics  *metrics.Metrics
}

// New creates an assistant. spec is the OpenAPI document shown to the
// model; it must not describe the assistant routes themselves.
func New(model llm.ChatModel, executor RequestExecutor, spec string, m *metrics.Metrics) *Assistant {
	return &Assistant{model: model, executor: executor, spec: spec, metrics: m}
}

// Respond runs one turn and streams the reply to w.
//
// When a loopback request cannot be sent, the exchanges made so far and
// the failure are still summarized to w, and the UpstreamConnection error
// is returned afterwards.
func (a *Assistant) Respond(ctx context.Context, history []llm.Message, w io.Writer) error {
	logger := log.Ctx(ctx)

	class, err := a.classify(ctx, history)
	if err != nil {
		return err
	}
	a.metrics.ObserveAssistTurn(class.String())
	logger.Debug().Str("class", class.String()).Msg("classified assist turn")

	if !class.Executes() {
		return a.reply(ctx, ResponsePrompt(a.spec, class), history, w)
	}

	plan, err := a.plan(ctx, class, history)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		logger.Debug().Msg("empty plan, replying directly")
		return a.reply(ctx, ResponsePrompt(a.spec, class), history, w)
	}

	executed, execErr := a.run(ctx, plan, history)
	if execErr != nil && types.KindOf(execErr) != types.KindUpstreamConnection {
		return execErr
	}
	if execErr != nil {
		logger.Warn().Err(execErr).Int("executed", len(executed)).Msg("loopback request failed")
	}

	if err := a.reply(ctx, SummaryPrompt(executed), history, w); err != nil {
		return errors.Join(execErr, err)
	}
	return execErr
}

// run materializes and sends each step in order. On a transport failure
// the failed request is recorded with the error as its response.
func (a *Assistant) run(ctx context.Context, plan []Step, history []llm.Message) ([]Exchange, error) {
	messages := make([]llm.Message, len(history), len(history)+2*len(plan))
	copy(messages, history)

	executed := make([]Exchange, 0, len(plan))
	previous := ""
	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: StepMessage(previous, step)})

		req, err := a.materialize(ctx, plan, executed, step, messages)
		if err != nil {
			return executed, err
		}
		text := req.JSON()
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: text})

		resp, err := a.executor.Execute(ctx, req)
		if err != nil {
			executed = append(executed, Exchange{Request: text, Response: types.MessageOf(err)})
			return executed, err
		}
		log.Ctx(ctx).Debug().
			Int("step", i+1).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("executed plan step")

		executed = append(executed, Exchange{Request: text, Response: resp})
		previous = resp
	}
	return executed, nil
}

// reply streams a completion under the given system prompt.
func (a *Assistant) reply(ctx context.Context, prompt string, history []llm.Message, w io.Writer) error {
	stream, err := a.model.GenerateStream(ctx, llm.GenerationRequest{
		Messages: withSystem(prompt, history),
	})
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	_, err = stream.WriteTo(w)
	return err
}
