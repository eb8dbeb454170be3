// Package pipeline executes request/response cycles against generation
// backends with pacing, retry, and provider fallback. A failed send never
// panics or aborts the caller; it resolves to ErrGenerationFailed after the
// retry budget is spent.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"dreamdelve/internal/llm"
	"dreamdelve/internal/observability"
	"dreamdelve/internal/session"
	"dreamdelve/internal/transcript"
)

// ErrGenerationFailed is the terminal sentinel returned once the retry
// budget is exhausted. Callers match it with errors.Is.
var ErrGenerationFailed = errors.New("generation failed after exhausting retries")

// Config carries the pipeline's retry policy.
type Config struct {
	// RetryBudget is the total number of attempts per send, across provider
	// switches. Must be at least 1.
	RetryBudget int
	// Backoff is the fixed delay before re-sending to the same provider.
	Backoff time.Duration
	// Fallback maps a failing provider to the provider to switch to. A
	// provider absent from the map has no fallback.
	Fallback map[llm.Provider]llm.Provider
}

// Recorder is the append-only audit sink for completed generations.
// *transcript.Recorder satisfies it; tests substitute their own.
type Recorder interface {
	Record(transcript.Entry) error
}

// Pipeline sends rendered session payloads to backends. Retries within one
// send are strictly sequential; no concurrent duplicate requests are issued
// for the same session.
type Pipeline struct {
	backends map[llm.Provider]llm.Backend
	cfg      Config
	pacer    *Pacer
	recorder Recorder
	tracer   trace.Tracer
	log      *zap.Logger
}

func New(backends map[llm.Provider]llm.Backend, cfg Config, pacer *Pacer, recorder Recorder, tracer trace.Tracer, log *zap.Logger) *Pipeline {
	if cfg.RetryBudget < 1 {
		cfg.RetryBudget = 1
	}
	return &Pipeline{
		backends: backends,
		cfg:      cfg,
		pacer:    pacer,
		recorder: recorder,
		tracer:   tracer,
		log:      log,
	}
}

// Send appends prompt as a user turn and runs one generation cycle. The
// returned text has already been appended to the session as an assistant
// turn.
func (p *Pipeline) Send(ctx context.Context, prompt string, sess *session.Session) (string, error) {
	return p.send(ctx, prompt, sess)
}

// Continue runs a generation cycle over the session's existing history
// without appending a new user turn.
func (p *Pipeline) Continue(ctx context.Context, sess *session.Session) (string, error) {
	return p.send(ctx, "", sess)
}

func (p *Pipeline) send(ctx context.Context, prompt string, sess *session.Session) (string, error) {
	if prompt != "" {
		sess.AddTurn(llm.RoleUser, prompt)
	}

	ctx = observability.WithSessionID(ctx, sess.ID())
	ctx, span := p.tracer.Start(ctx, "pipeline.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("session.purpose", sess.Purpose()),
		),
	)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= p.cfg.RetryBudget; attempt++ {
		provider := sess.Provider()
		backend, ok := p.backends[provider]
		if !ok {
			span.SetStatus(codes.Error, "provider not configured")
			return "", fmt.Errorf("no backend configured for provider %q: %w", provider, ErrGenerationFailed)
		}

		if err := p.pacer.Wait(ctx); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("pacing interrupted: %w", err)
		}

		payload := sess.Render()
		reply, err := backend.Send(ctx, payload)
		if err == nil {
			usage := p.ensureUsage(reply)
			p.record(sess, provider, prompt, reply.Text, usage, reply.Estimated)
			sess.AddTurn(llm.RoleAssistant, reply.Text)

			span.SetAttributes(observability.CreateGenAIAttributes(
				string(provider), payload.Model,
				usage.PromptTokens, usage.CompletionTokens,
				float64(payload.Temperature),
			)...)
			span.SetAttributes(attribute.Int("retry.attempt", attempt))
			return reply.Text, nil
		}

		lastErr = err
		span.RecordError(err)
		p.log.Warn("generation attempt failed",
			zap.String("provider", string(provider)),
			zap.String("purpose", sess.Purpose()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt >= p.cfg.RetryBudget {
			break
		}

		// Transport failures and malformed envelopes are treated alike:
		// switch to the fallback provider when one is mapped, otherwise
		// back off and retry the same provider.
		if fb, ok := p.cfg.Fallback[provider]; ok && fb != provider {
			p.log.Info("switching session to fallback provider",
				zap.String("from", string(provider)),
				zap.String("to", string(fb)),
				zap.String("session_id", sess.ID()),
			)
			sess.SwitchProvider(fb)
			continue
		}

		select {
		case <-time.After(p.cfg.Backoff):
		case <-ctx.Done():
			return "", fmt.Errorf("backoff interrupted: %w", ctx.Err())
		}
	}

	span.SetStatus(codes.Error, "retry budget exhausted")
	return "", fmt.Errorf("send for %q: %v: %w", sess.Purpose(), lastErr, ErrGenerationFailed)
}

// ensureUsage fills in locally estimated token counts when the backend
// envelope carried none.
func (p *Pipeline) ensureUsage(reply llm.Reply) llm.Usage {
	if !reply.Estimated || reply.Usage.TotalTokens > 0 {
		return reply.Usage
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return reply.Usage
	}
	completion := len(enc.Encode(reply.Text, nil, nil))
	return llm.Usage{
		CompletionTokens: completion,
		TotalTokens:      completion,
	}
}

func (p *Pipeline) record(sess *session.Session, provider llm.Provider, prompt, response string, usage llm.Usage, estimated bool) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.Record(transcript.Entry{
		SessionID:        sess.ID(),
		Purpose:          sess.Purpose(),
		Provider:         string(provider),
		Prompt:           prompt,
		Response:         response,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		EstimatedUsage:   estimated,
	})
	if err != nil {
		p.log.Warn("failed to record transcript entry", zap.Error(err))
	}
}
