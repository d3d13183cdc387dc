package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/ask"
	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/nl2sql"
)

const maxAskBodyBytes = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

func handleAsk(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Asker == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "ask pipeline is not configured", false, nil)
		return
	}
	if err := auth.Authorize(r.Context(), auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	question, err := questionFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	response, err := deps.Asker.Ask(r.Context(), question)
	if err != nil {
		status, code, retryable := classifyAskError(err)
		if cfg.API.UniformErrors {
			status = http.StatusBadRequest
		}
		writeError(r.Context(), w, status, code, err.Error(), retryable, askErrorContext(err))
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema introspection is not configured", false, nil)
		return
	}
	if err := auth.Authorize(r.Context(), auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	description, err := deps.Schema.Describe(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", "failed to load schema", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": description})
}

// questionFromRequest prefers the question query parameter and falls back to
// a JSON body.
func questionFromRequest(r *http.Request) (string, error) {
	if question := r.URL.Query().Get("question"); question != "" {
		return question, nil
	}
	if r.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAskBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(raw) > maxAskBodyBytes {
		return "", fmt.Errorf("body exceeds %d bytes", maxAskBodyBytes)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", nil
	}
	var req askRequest
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return "", err
	}
	return req.Question, nil
}

func classifyAskError(err error) (int, string, bool) {
	var (
		unsafeErr        *ask.UnsafeQueryError
		generationErr    *ask.GenerationError
		executionErr     *ask.ExecutionError
		introspectionErr *ask.IntrospectionError
	)
	switch {
	case errors.As(err, &unsafeErr):
		return http.StatusBadRequest, "UNSAFE_QUERY", false
	case errors.As(err, &generationErr):
		if errors.Is(err, nl2sql.ErrEmptyCompletion) {
			return http.StatusBadRequest, "GENERATION_EMPTY", false
		}
		return http.StatusBadGateway, "GENERATION_FAILED", true
	case errors.As(err, &executionErr):
		return http.StatusBadRequest, "QUERY_EXECUTION_FAILED", false
	case errors.As(err, &introspectionErr):
		return http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", true
	default:
		return http.StatusInternalServerError, "INTERNAL", false
	}
}

func askErrorContext(err error) map[string]any {
	var unsafeErr *ask.UnsafeQueryError
	if errors.As(err, &unsafeErr) {
		return map[string]any{"sql": unsafeErr.SQL}
	}
	var executionErr *ask.ExecutionError
	if errors.As(err, &executionErr) {
		return map[string]any{"sql": executionErr.SQL}
	}
	return nil
}
