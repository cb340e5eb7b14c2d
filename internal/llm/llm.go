package llm

import "context"

// Format selects the response mode for a generation request.
type Format int

const (
	// FormatText requests a free-form text response.
	FormatText Format = iota
	// FormatJSON requests a strict JSON response. Models may still wrap
	// the payload in a markdown code fence; callers must strip it.
	FormatJSON
)

// Effort is the reasoning depth knob for a generation request. Higher
// effort trades latency for recall on subtle analysis tasks.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Request describes a single generation call.
type Request struct {
	Prompt string
	Format Format
	Effort Effort
}

// Model abstracts a generative language model. Consumers such as the
// analysis agent and chat responder depend on this interface instead of
// a concrete vendor client.
type Model interface {
	// Generate sends the prompt and returns the model's response text.
	Generate(ctx context.Context, req Request) (string, error)
}

// Embedder generates embedding vectors for texts. Indexing and querying
// must use the same embedder; mixing dimensionalities is a configuration
// error that is not runtime-checked.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
