package llm

import (
	"context"
	"errors"
	"time"
)

// ErrCompletion is wrapped by every failure of the underlying model backend
// (server unreachable, model missing, out of memory). It is never used for
// output that merely fails to parse.
var ErrCompletion = errors.New("model completion failed")

// Provider abstracts a text completion backend behind a single blocking call.
type Provider interface {
	// Complete sends prompt to the model and returns the complete generated text.
	// On failure the returned Completion still carries Model and Duration.
	Complete(ctx context.Context, prompt string, settings ModelSettings) (Completion, error)
}

// Completion is the raw result of one model call. Text is the only field the
// normalizer looks at; the rest is for logging and metrics.
type Completion struct {
	Text     string
	Model    string
	Duration time.Duration
}

// ModelSettings is the generation configuration passed with every completion.
type ModelSettings struct {
	// Temperature 0 gives deterministic sampling
	Temperature float64

	// TopP 0 disables nucleus sampling
	TopP float64

	// TopK 1 always picks the single most probable token
	TopK int

	// RepeatPenalty down-weights tokens already emitted within RepeatWindow
	RepeatPenalty float64
	RepeatWindow  int

	// MaxOutputTokens is a hard cap on generated length
	MaxOutputTokens int

	// BatchSize is the backend's internal token batch size; no effect on output
	BatchSize int

	// Streamed asks the backend for incremental fragments. The provider
	// still returns the concatenated text.
	Streamed bool
}

// DefaultModelSettings returns the settings used for email classification.
func DefaultModelSettings() ModelSettings {
	return ModelSettings{
		Temperature:     0.0,
		TopP:            0.0,
		TopK:            1,
		RepeatPenalty:   1.18,
		RepeatWindow:    64,
		MaxOutputTokens: 35,
		BatchSize:       8,
		Streamed:        false,
	}
}

// Options renders the settings as Ollama model options.
func (s ModelSettings) Options() map[string]any {
	return map[string]any{
		"temperature":    s.Temperature,
		"top_p":          s.TopP,
		"top_k":          s.TopK,
		"repeat_penalty": s.RepeatPenalty,
		"repeat_last_n":  s.RepeatWindow,
		"num_predict":    s.MaxOutputTokens,
		"num_batch":      s.BatchSize,
	}
}
