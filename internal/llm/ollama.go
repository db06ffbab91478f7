package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	// DefaultOllamaHost is where a local Ollama server listens by default.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the Llama 3 8B instruct model in 4-bit quantisation.
	DefaultOllamaModel = "llama3:8b-instruct-q4_0"
)

// OllamaConfig configures an Ollama provider.
type OllamaConfig struct {
	// Host is the server address. A bare "host:port" is accepted.
	Host string

	// Model is the model tag used for every completion.
	Model string

	// Timeout bounds each completion. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Ollama implements Provider on top of the Ollama generate API.
type Ollama struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOllama creates a provider for the configured server and model.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	base, err := ParseHost(cfg.Host)
	if err != nil {
		return nil, err
	}

	return &Ollama{
		client:  api.NewClient(base, cfg.HTTPClient),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// ParseHost turns an Ollama host setting into a base URL. Ollama itself
// accepts "host:port" without a scheme, so plain http is assumed.
func ParseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("ollama host is empty")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: missing host", host)
	}
	return u, nil
}

// Model returns the configured model tag.
func (o *Ollama) Model() string {
	return o.model
}

// Complete runs one generation and returns the full text.
func (o *Ollama) Complete(ctx context.Context, prompt string, settings ModelSettings) (Completion, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	stream := settings.Streamed
	req := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: settings.Options(),
	}

	var (
		text  strings.Builder
		model = o.model
	)
	start := time.Now()
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		if resp.Model != "" {
			model = resp.Model
		}
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		return Completion{Model: model, Duration: elapsed}, fmt.Errorf("%w: %s: %w", ErrCompletion, o.model, err)
	}

	o.logger.Debug("model completion finished",
		"model", model,
		"duration", elapsed,
		"chars", text.Len(),
	)

	return Completion{
		Text:     text.String(),
		Model:    model,
		Duration: elapsed,
	}, nil
}

// Healthy checks that the server is reachable and has the model pulled.
func (o *Ollama) Healthy(ctx context.Context) error {
	list, err := o.client.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: ollama not reachable: %w", ErrCompletion, err)
	}
	for _, m := range list.Models {
		if sameModel(m.Name, o.model) || sameModel(m.Model, o.model) {
			return nil
		}
	}
	return fmt.Errorf("%w: model %s is not available, run `ollama pull %s`", ErrCompletion, o.model, o.model)
}

// sameModel compares tags, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return withTag(a) == withTag(b)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
