// Package ask runs the question pipeline: describe the schema, render the
// prompt, generate SQL, gate it, execute it.
package ask

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/prompt"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/safety"
	"github.com/askdb/askdb/internal/schema"
)

type Describer interface {
	Describe(ctx context.Context) (schema.Description, error)
}

type Executor interface {
	Execute(ctx context.Context, sqlText string) (query.ResultSet, error)
}

type Response struct {
	Question string      `json:"question"`
	SQL      string      `json:"sql"`
	Results  []query.Row `json:"results"`
}

type Service struct {
	Schema     Describer
	Translator nl2sql.Translator
	Executor   Executor
	Logger     *slog.Logger
}

func (s *Service) Ask(ctx context.Context, question string) (Response, error) {
	if s.Schema == nil || s.Translator == nil || s.Executor == nil {
		return Response{}, fmt.Errorf("ask service is not fully configured")
	}
	logger := s.logger()

	stageStart := time.Now()
	description, err := s.Schema.Describe(ctx)
	observability.ObserveAskStage("introspect", time.Since(stageStart))
	if err != nil {
		observability.ObserveAskOutcome("introspection_error", 0)
		logger.ErrorContext(ctx, "schema introspection failed", slog.Any("error", err))
		return Response{}, &IntrospectionError{Err: err}
	}

	request := prompt.New(description, question)

	stageStart = time.Now()
	generated, err := s.Translator.Translate(ctx, request)
	observability.ObserveAskStage("generate", time.Since(stageStart))
	if err == nil && strings.TrimSpace(generated.SQL) == "" {
		err = nl2sql.ErrEmptyCompletion
	}
	if err != nil {
		observability.ObserveAskOutcome("generation_error", 0)
		logger.ErrorContext(ctx, "sql generation failed", slog.Any("error", err))
		return Response{}, &GenerationError{Err: err}
	}
	candidate := generated.SQL

	if !safety.IsSafe(candidate) {
		observability.IncrementUnsafeQuery()
		observability.ObserveAskOutcome("unsafe", 0)
		logger.WarnContext(ctx, "generated query rejected", slog.String("sql", candidate))
		return Response{}, &UnsafeQueryError{SQL: candidate}
	}

	stageStart = time.Now()
	result, err := s.Executor.Execute(ctx, candidate)
	observability.ObserveAskStage("execute", time.Since(stageStart))
	if err != nil {
		observability.ObserveAskOutcome("execution_error", 0)
		logger.ErrorContext(ctx, "query execution failed", slog.String("sql", candidate), slog.Any("error", err))
		return Response{}, &ExecutionError{SQL: candidate, Err: err}
	}

	rows := result.Rows
	if rows == nil {
		rows = []query.Row{}
	}
	observability.ObserveAskOutcome("ok", len(rows))
	logger.InfoContext(ctx, "question answered",
		slog.String("sql", candidate),
		slog.Int("rows", len(rows)),
		slog.String("model", generated.Model),
	)
	return Response{Question: question, SQL: candidate, Results: rows}, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}
