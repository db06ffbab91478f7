package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxtally/internal/gmail"
	"github.com/teemow/inboxtally/internal/instrumentation"
	"github.com/teemow/inboxtally/internal/llm"
	"github.com/teemow/inboxtally/internal/logging"
)

// Source tells where a classification came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is the outcome for one message.
type Result struct {
	Message        gmail.MessageSummary
	Classification Classification
	Source         Source

	// Err wraps llm.ErrCompletion or ErrMalformedOutput when the fallback
	// was used. It is nil for cache hits and usable model output.
	Err error

	// CacheErr wraps cache.ErrUnavailable when the lookup or the store
	// failed. The classification is still valid.
	CacheErr error
}

// BatchResult holds the per-message results and their tally.
type BatchResult struct {
	Tally   Tally
	Results []Result
}

// Options configures a Classifier.
type Options struct {
	Cache    *Cache
	Provider llm.Provider

	// Settings is passed with every completion. The zero value means
	// llm.DefaultModelSettings().
	Settings llm.ModelSettings

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// Progress, when set, is called after each message is classified.
	Progress func(Result)
}

// Classifier runs the prompt, cache, model and normalize steps for a batch
// of messages, one message at a time.
type Classifier struct {
	cache    *Cache
	provider llm.Provider
	settings llm.ModelSettings
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	progress func(Result)
}

// New creates a Classifier. Cache and Provider are required.
func New(opts Options) (*Classifier, error) {
	if opts.Cache == nil {
		return nil, errors.New("classifier requires a cache")
	}
	if opts.Provider == nil {
		return nil, errors.New("classifier requires a completion provider")
	}
	if opts.Settings == (llm.ModelSettings{}) {
		opts.Settings = llm.DefaultModelSettings()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Classifier{
		cache:    opts.Cache,
		provider: opts.Provider,
		settings: opts.Settings,
		logger:   logging.WithOperation(opts.Logger, "classify"),
		metrics:  opts.Metrics,
		progress: opts.Progress,
	}, nil
}

// ClassifyBatch classifies messages in order. Failures of a single message
// never stop the batch; they degrade that message to the fallback. A
// cancelled context stops the batch between messages and the partial
// result is returned together with the context error.
func (c *Classifier) ClassifyBatch(ctx context.Context, messages []gmail.MessageSummary) (*BatchResult, error) {
	batch := &BatchResult{
		Tally:   NewTally(),
		Results: make([]Result, 0, len(messages)),
	}

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return batch, fmt.Errorf("batch stopped after %d of %d messages: %w", len(batch.Results), len(messages), err)
		}

		res := c.Classify(ctx, msg)
		batch.Tally.Add(res.Classification.Category)
		batch.Results = append(batch.Results, res)

		if c.progress != nil {
			c.progress(res)
		}
	}

	return batch, nil
}

// Classify classifies a single message.
func (c *Classifier) Classify(ctx context.Context, msg gmail.MessageSummary) Result {
	ctx, span := instrumentation.StartMessageSpan(ctx, msg.ID)
	defer span.End()

	logger := c.logger.With(
		logging.MessageID(msg.ID),
		logging.SenderDomain(msg.Sender),
		logging.SenderHash(msg.Sender),
	)
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(logging.TraceID(traceID))
	}
	res := Result{Message: msg}
	prompt := BuildPrompt(msg.Subject, msg.Sender)

	cached, found, err := c.cache.Lookup(ctx, prompt)
	switch {
	case err != nil:
		res.CacheErr = err
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheError)
		instrumentation.AddSpanEvent(span, "cache.unavailable")
		logger.Warn("cache lookup failed, classifying without cache", logging.Err(err))
	case found:
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheHit)
		res.Classification = cached
		res.Source = SourceCache
		return c.finish(ctx, span, logger, res)
	default:
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)
	}

	start := time.Now()
	completion, err := c.provider.Complete(ctx, prompt, c.settings)
	elapsed := completion.Duration
	if elapsed == 0 {
		elapsed = time.Since(start)
	}
	if err != nil {
		if !errors.Is(err, llm.ErrCompletion) {
			err = fmt.Errorf("%w: %w", llm.ErrCompletion, err)
		}
		c.metrics.RecordModelCompletion(ctx, instrumentation.StatusError, elapsed)
		instrumentation.SetSpanError(span, err)
		logger.Error("model completion failed", logging.Err(err))

		// Model failures are not cached so the next run retries the message.
		res.Classification = Fallback()
		res.Source = SourceFallback
		res.Err = err
		return c.finish(ctx, span, logger, res)
	}
	c.metrics.RecordModelCompletion(ctx, instrumentation.StatusSuccess, elapsed)

	cl, err := Parse(completion.Text)
	if err != nil {
		instrumentation.AddSpanEvent(span, "output.malformed")
		logger.Warn("model output is not a classification, using fallback",
			logging.Err(err),
			slog.Int("chars", len(completion.Text)),
		)
		res.Classification = Fallback()
		res.Source = SourceFallback
		res.Err = err
	} else {
		res.Classification = cl
		res.Source = SourceModel
	}

	if err := c.cache.Save(ctx, prompt, res.Classification); err != nil {
		if res.CacheErr == nil {
			res.CacheErr = err
		}
		logger.Warn("failed to cache classification", logging.Err(err))
	}

	return c.finish(ctx, span, logger, res)
}

func (c *Classifier) finish(ctx context.Context, span trace.Span, logger *slog.Logger, res Result) Result {
	category := string(res.Classification.Category)
	c.metrics.RecordClassification(ctx, category, string(res.Source))
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithClassification(category, string(res.Source)).
		Build()...)
	if res.Err == nil {
		instrumentation.SetSpanSuccess(span)
	}

	logger.Debug("message classified",
		logging.Category(category),
		logging.Source(string(res.Source)),
		slog.Bool("uninformative", res.Classification.IsFallback()),
	)
	return res
}
