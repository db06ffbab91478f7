package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxtally/internal/cache"
	"github.com/teemow/inboxtally/internal/classify"
	"github.com/teemow/inboxtally/internal/config"
	"github.com/teemow/inboxtally/internal/gmail"
	"github.com/teemow/inboxtally/internal/google"
	"github.com/teemow/inboxtally/internal/instrumentation"
	"github.com/teemow/inboxtally/internal/llm"
	"github.com/teemow/inboxtally/internal/logging"
	"github.com/teemow/inboxtally/internal/report"
)

// configEnv names the environment variable used when --config is not given.
const configEnv = "INBOXTALLY_CONFIG"

// mailSource is the part of the Gmail client a batch needs.
type mailSource interface {
	FetchSummaries(ctx context.Context, maxResults int64) ([]gmail.MessageSummary, error)
}

// batchClassifier is the part of the classifier a batch needs.
type batchClassifier interface {
	ClassifyBatch(ctx context.Context, messages []gmail.MessageSummary) (*classify.BatchResult, error)
}

// app holds everything one command run needs. It is built once per process
// and closed on exit.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	out        io.Writer
	instr      *instrumentation.Provider
	mail       mailSource
	classifier batchClassifier

	closers []func(context.Context) error
}

// flagOverrides carries command line values that win over file and env.
type flagOverrides struct {
	account    string
	maxResults int64
}

// loadConfig reads the config file (from --config or INBOXTALLY_CONFIG),
// applies the flags the user actually set and validates the result.
func loadConfig(cmd *cobra.Command, overrides flagOverrides) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("account") {
		cfg.Gmail.Account = overrides.account
	}
	if cmd.Flags().Changed("max-results") {
		cfg.Gmail.MaxResults = overrides.maxResults
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp wires the instrumentation provider, the Gmail client, the cache and
// the model into a ready classifier. Status lines go to out.
func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logging.New(os.Stderr, debugMode),
		out:    out,
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a.instr = provider
	a.closers = append(a.closers, provider.Shutdown)

	mail, err := a.connectGmail(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.mail = mail

	model, err := llm.NewOllama(llm.OllamaConfig{
		Host:    cfg.Model.Host,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.Timeout,
		Logger:  a.logger,
	})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	if err := model.Healthy(ctx); err != nil {
		a.logger.Warn("model health check failed, messages will fall back until it recovers",
			slog.String("model", model.Model()),
			logging.Err(err),
		)
	}

	classifier, err := classify.New(classify.Options{
		Cache:    a.newCache(ctx),
		Provider: model,
		Logger:   a.logger,
		Metrics:  provider.Metrics(),
		Progress: func(res classify.Result) { printResult(a.out, res) },
	})
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.classifier = classifier

	return a, nil
}

// connectGmail authenticates the configured account and creates the client.
// A missing credentials file is fatal.
func (a *app) connectGmail(ctx context.Context) (*gmail.Client, error) {
	credentials := a.cfg.Google.CredentialsPath
	if credentials == "" {
		path, err := google.CredentialsPath()
		if err != nil {
			return nil, err
		}
		credentials = path
	}

	oauthConfig, err := google.LoadOAuthConfig(credentials)
	if err != nil {
		return nil, err
	}

	auth := google.NewAuthenticator(oauthConfig, google.NewTokenStore(a.cfg.Google.TokenDir),
		google.WithLogger(a.logger),
		google.WithPromptWriter(a.out),
	)

	fmt.Fprintln(a.out, "Connecting to Gmail API...")

	httpClient, err := auth.HTTPClient(ctx, a.cfg.Gmail.Account)
	if err != nil {
		fmt.Fprintf(a.out, "Failed to connect to Gmail API: %v\n", err)
		return nil, fmt.Errorf("failed to authenticate account %s: %w", a.cfg.Gmail.Account, err)
	}

	client, err := gmail.NewClient(ctx, gmail.Config{
		Account:    a.cfg.Gmail.Account,
		HTTPClient: httpClient,
		Logger:     a.logger,
		Metrics:    a.instr.Metrics(),
	})
	if err != nil {
		fmt.Fprintf(a.out, "Failed to connect to Gmail API: %v\n", err)
		return nil, err
	}

	fmt.Fprintln(a.out, "Connected!")
	return client, nil
}

// newCache wraps the configured store in the classification cache.
func (a *app) newCache(ctx context.Context) *classify.Cache {
	c := classify.NewCache(a.newStore(ctx), a.cfg.Cache.TTL, a.logger)
	a.logger.Debug("classification cache ready",
		slog.String("type", a.cfg.Cache.Type),
		slog.Duration("ttl", c.TTL()),
	)
	return c
}

// newStore opens the configured cache backend. An unreachable Redis is only
// a warning because every lookup then degrades to a miss.
func (a *app) newStore(ctx context.Context) cache.Store {
	if a.cfg.Cache.Type == config.CacheMemory {
		a.logger.Info("using in-memory cache, results are lost on exit")
		store := cache.NewMemory()
		a.closers = append(a.closers, func(context.Context) error {
			a.logger.Debug("discarding in-memory cache", slog.Int("entries", store.Len()))
			return nil
		})
		return store
	}

	store := cache.NewRedis(cache.RedisConfig{
		Addr:      a.cfg.Redis.Addr,
		Password:  a.cfg.Redis.Password,
		DB:        a.cfg.Redis.DB,
		KeyPrefix: a.cfg.Redis.KeyPrefix,
	})
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })

	if err := store.Ping(ctx); err != nil {
		a.logger.Warn("redis not reachable, every message will go to the model",
			slog.String("addr", a.cfg.Redis.Addr),
			logging.Err(err),
		)
	}
	return store
}

// close releases resources in reverse order of creation.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("error during shutdown", logging.Err(err))
		}
	}
	a.closers = nil
}

// runBatch fetches up to maxResults messages and classifies them. A fetch
// failure aborts the batch before anything is tallied.
func runBatch(ctx context.Context, out io.Writer, logger *slog.Logger, mail mailSource, classifier batchClassifier, maxResults int64) (*classify.BatchResult, error) {
	logger = logger.With(slog.String("batch_id", uuid.NewString()))
	start := time.Now()

	messages, err := mail.FetchSummaries(ctx, maxResults)
	if err != nil {
		fmt.Fprintf(out, "Failed to fetch messages: %v\n", err)
		logger.Error("batch aborted, messages could not be fetched", logging.Err(err))
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	fmt.Fprintf(out, "Classifying %d messages...\n", len(messages))
	batch, err := classifier.ClassifyBatch(ctx, messages)
	if batch == nil {
		return nil, err
	}

	sources := make(map[classify.Source]int)
	for _, res := range batch.Results {
		sources[res.Source]++
	}
	logger.Info("batch finished",
		slog.Int("messages", len(batch.Results)),
		slog.Int("cached", sources[classify.SourceCache]),
		slog.Int("model", sources[classify.SourceModel]),
		slog.Int("fallback", sources[classify.SourceFallback]),
		logging.Duration(time.Since(start)),
		logging.Err(err),
	)
	return batch, err
}

// printResult writes one progress line per classified message.
func printResult(out io.Writer, res classify.Result) {
	c := res.Classification
	fmt.Fprintf(out, "%-13s %q from %s", c.Category, res.Message.Subject, res.Message.Sender)
	if c.Priority != "" {
		fmt.Fprintf(out, " priority=%s", c.Priority)
	}
	if c.RequiresResponse != "" {
		fmt.Fprintf(out, " response=%s", c.RequiresResponse)
	}
	fmt.Fprintf(out, " [%s]", res.Source)

	switch {
	case errors.Is(res.Err, llm.ErrCompletion):
		fmt.Fprint(out, " model failed")
	case errors.Is(res.Err, classify.ErrMalformedOutput):
		fmt.Fprint(out, " unparsable answer")
	}
	fmt.Fprintln(out)
}

// writeChart renders the pie chart into the file at path.
func writeChart(path string, tally classify.Tally) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close chart file: %w", cerr)
		}
	}()

	if err := report.WritePieHTML(f, tally, report.DefaultTitle); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
