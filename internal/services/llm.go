package services

import "context"

// TextGenerator is satisfied by the openai and gemini clients.
type TextGenerator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

// JSONGenerator returns the raw JSON text of a structured-output call.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (string, error)
}

type LLM interface {
	TextGenerator
	JSONGenerator
	Name() string
}
