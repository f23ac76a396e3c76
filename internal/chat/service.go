package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chatdb/chatdb/internal/nl2sql"
	"github.com/chatdb/chatdb/internal/observability"
	"github.com/chatdb/chatdb/internal/query"
	"github.com/chatdb/chatdb/internal/schema"
)

type SchemaSource interface {
	Describe(ctx context.Context) (schema.Description, error)
}

// Service runs one chat turn: describe the catalog, ask the model, gate the
// proposed SQL, execute it and compose the envelope. A nil Generator, Engine
// or Introspector marks that capability as unavailable.
type Service struct {
	Introspector      SchemaSource
	Generator         nl2sql.Generator
	Engine            query.Engine
	Logger            *slog.Logger
	GenerationTimeout time.Duration
	QueryTimeout      time.Duration
}

func (s *Service) GenerationReady() bool {
	return s != nil && s.Generator != nil
}

func (s *Service) DatabaseReady() bool {
	return s != nil && s.Engine != nil && s.Introspector != nil
}

func (s *Service) Ask(ctx context.Context, question string) (Envelope, error) {
	if !s.GenerationReady() {
		return Envelope{}, ErrGenerationUnavailable
	}
	if !s.DatabaseReady() {
		return Envelope{}, ErrDatabaseUnavailable
	}
	logger := observability.RequestLogger(ctx, s.Logger)

	desc, err := s.describe(ctx)
	if err != nil {
		observability.IncrementChatRequest("introspection_failed")
		return Envelope{}, err
	}

	request := nl2sql.NewRequest(schema.Render(desc), question)
	result, err := s.generate(ctx, request)
	if err != nil {
		logger.Warn("generation failed", slog.Any("error", err))
		observability.IncrementChatRequest("generation_failed")
		return ComposeGenerationFailure(err), nil
	}

	candidate := nl2sql.Interpret(result.Text)
	if candidate.Degraded {
		observability.IncrementInterpretationDegraded()
		logger.Warn("model reply was not valid JSON", slog.Bool("sql_recovered", candidate.SQLQuery != ""))
	}

	decision := Gate(&candidate)
	observability.IncrementGateDecision(decision.String())
	if decision == DecisionReject {
		logger.Warn("rejected non-select query", slog.String("sql", candidate.SQLQuery))
	}

	outcome := Outcome{Kind: OutcomeSkipped}
	if decision == DecisionExecute {
		outcome = s.execute(ctx, candidate.SQLQuery)
		if outcome.Kind == OutcomeFailure {
			logger.Warn("query failed", slog.String("sql", candidate.SQLQuery), slog.String("error", outcome.Message))
		}
	}

	label := outcome.Kind.String()
	if decision == DecisionReject {
		label = "rejected"
	}
	observability.IncrementChatRequest(label)
	logger.Debug("chat turn completed",
		slog.String("provider", result.Provider),
		slog.String("model", result.Model),
		slog.String("decision", decision.String()),
		slog.String("outcome", outcome.Kind.String()),
		slog.Int("rows", outcome.RowCount),
	)
	return Compose(candidate, outcome), nil
}

// Schema renders the live catalog description.
func (s *Service) Schema(ctx context.Context) (string, error) {
	if s == nil || s.Introspector == nil {
		return "", ErrDatabaseUnavailable
	}
	desc, err := s.describe(ctx)
	if err != nil {
		return "", err
	}
	return schema.Render(desc), nil
}

func (s *Service) describe(ctx context.Context) (schema.Description, error) {
	desc, err := s.Introspector.Describe(ctx)
	if err != nil {
		var introspectionErr *schema.IntrospectionError
		if errors.As(err, &introspectionErr) {
			return schema.Description{}, err
		}
		return schema.Description{}, &schema.IntrospectionError{Op: "describe", Err: err}
	}
	return desc, nil
}

func (s *Service) generate(ctx context.Context, request nl2sql.Request) (result nl2sql.Result, err error) {
	start := time.Now()
	defer func() { observability.ObserveGeneration(time.Since(start), err) }()

	if s.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.GenerationTimeout)
		defer cancel()
	}
	return s.Generator.Generate(ctx, request)
}

func (s *Service) execute(ctx context.Context, sql string) Outcome {
	if s.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.QueryTimeout)
		defer cancel()
	}
	return Execute(ctx, s.Engine, sql)
}
