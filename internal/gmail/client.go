package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxtally/internal/instrumentation"
	"github.com/teemow/inboxtally/internal/logging"
)

const (
	// MaxPageSize is the largest page the messages.list call returns.
	MaxPageSize = 500

	// DefaultMaxResults is the batch size used when none is configured.
	DefaultMaxResults = 10

	serviceName = "gmail"
	userID      = "me"
)

// Config configures a Client.
type Config struct {
	// Account names the Google account, used for logs and spans only.
	Account string

	// HTTPClient is an authenticated client, usually from the google package.
	HTTPClient *http.Client

	// Endpoint overrides the API base URL (tests).
	Endpoint string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Client wraps the Gmail Users service for read-only metadata access.
type Client struct {
	svc     *gmail.UsersService
	account string
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client that issues requests through cfg.HTTPClient.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.HTTPClient == nil {
		return nil, errors.New("an authenticated HTTP client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.ClientOption{option.WithHTTPClient(cfg.HTTPClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: cfg.Account,
		logger:  logging.WithAccount(cfg.Logger, cfg.Account),
		metrics: cfg.Metrics,
	}, nil
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// ListMessageIDs returns the ids of the newest messages, at most maxResults.
// Only a single page is requested, so maxResults is capped at MaxPageSize.
func (c *Client) ListMessageIDs(ctx context.Context, maxResults int64) ([]string, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}

	var res *gmail.ListMessagesResponse
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		var err error
		res, err = c.svc.Messages.List(userID).MaxResults(maxResults).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessageMetadata fetches a message in metadata format with only the
// Subject and From headers.
func (c *Client) GetMessageMetadata(ctx context.Context, id string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(userID, id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// FetchSummaries lists up to maxResults messages and fetches their metadata.
// Any failure aborts the whole fetch.
func (c *Client) FetchSummaries(ctx context.Context, maxResults int64) ([]MessageSummary, error) {
	ids, err := c.ListMessageIDs(ctx, maxResults)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := c.GetMessageMetadata(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SummaryFromMessage(msg))
	}

	c.logger.Debug("fetched message summaries", slog.Int("count", len(summaries)))
	return summaries, nil
}

// observe runs fn inside a Google API span and records the call metrics.
func (c *Client) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, serviceName, operation,
		instrumentation.NewSpanAttributeBuilder().WithAccount(c.account).Build()...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.logger.Debug("gmail api call",
		logging.Operation(operation),
		logging.Status(status),
		logging.Duration(duration),
		logging.Err(err),
	)
	c.metrics.RecordGmailOperation(ctx, operation, status, duration)
	return err
}
