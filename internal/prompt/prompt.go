// Package prompt turns a schema description and a question into the text sent
// to the generation backend. Rendering is pure and deterministic.
package prompt

import (
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

// SystemInstruction is sent as the system message with every question.
const SystemInstruction = `You are an expert data analyst.
You are given a database schema.
Your job is to convert the user's natural language question
into a valid read-only SELECT query.

RULES:
- Only generate SELECT queries
- Do NOT use INSERT, UPDATE, DELETE, DROP
- Use only tables and columns from the schema
- Return ONLY the SQL query
- Do NOT wrap SQL in any markup`

// Request is built fresh for every question and never mutated.
type Request struct {
	SystemInstruction string
	SchemaText        string
	Question          string
}

// New builds the generation request for question against description.
func New(description schema.Description, question string) Request {
	return Request{
		SystemInstruction: SystemInstruction,
		SchemaText:        SchemaText(description),
		Question:          question,
	}
}

// UserContent is the user message: the rendered schema followed by the
// question.
func (r Request) UserContent() string {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	b.WriteString(r.SchemaText)
	b.WriteString("\nQuestion:\n")
	b.WriteString(r.Question)
	b.WriteString("\n")
	return b.String()
}

// Render is the user message for question, as sent to the generator.
func Render(description schema.Description, question string) string {
	return New(description, question).UserContent()
}

// SchemaText writes "Table: <name>" and one "- <column>" line per column for
// each table, with a blank line after every table.
func SchemaText(description schema.Description) string {
	var b strings.Builder
	for _, table := range description {
		b.WriteString("Table: ")
		b.WriteString(table.Name)
		b.WriteString("\n")
		for _, column := range table.Columns {
			b.WriteString("- ")
			b.WriteString(column)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
