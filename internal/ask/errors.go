package ask

import "fmt"

// IntrospectionError means the schema could not be read. Nothing was sent to
// the model.
type IntrospectionError struct {
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("describe schema: %v", e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

// GenerationError means the model call failed or returned no SQL.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate sql: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UnsafeQueryError means the candidate was rejected before reaching the
// database.
type UnsafeQueryError struct {
	SQL string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("generated query rejected as unsafe: %q", e.SQL)
}

type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute sql: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
