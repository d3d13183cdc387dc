package nl2sql

import (
	"context"
	"errors"

	"github.com/askdb/askdb/internal/prompt"
)

// ErrEmptyCompletion is returned when the backend answers with blank text.
var ErrEmptyCompletion = errors.New("model returned empty SQL")

// Result.SQL is untrusted candidate text; it has only been trimmed.
type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req prompt.Request) (Result, error)
}
