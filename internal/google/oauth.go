package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxtally/internal/logging"
)

// Authenticator produces authenticated HTTP clients for Google APIs. Tokens
// are loaded from the store and refreshed transparently; when no usable token
// exists the installed-app consent flow runs on a loopback redirect.
type Authenticator struct {
	config *oauth2.Config
	store  *TokenStore
	logger *slog.Logger

	// prompt shows the consent URL to the user.
	prompt func(authURL string)
}

// AuthenticatorOption customizes an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AuthenticatorOption {
	return func(a *Authenticator) { a.logger = logger }
}

// WithPrompt replaces how the consent URL is presented.
func WithPrompt(prompt func(authURL string)) AuthenticatorOption {
	return func(a *Authenticator) { a.prompt = prompt }
}

// WithPromptWriter prints the consent URL to w.
func WithPromptWriter(w io.Writer) AuthenticatorOption {
	return func(a *Authenticator) {
		a.prompt = func(authURL string) {
			fmt.Fprintf(w, "Open the following URL in your browser to authorize access to Gmail:\n\n%s\n\n", authURL)
		}
	}
}

// NewAuthenticator creates an Authenticator for config storing tokens in store.
func NewAuthenticator(config *oauth2.Config, store *TokenStore, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		config: config,
		store:  store,
		logger: slog.Default(),
	}
	WithPromptWriter(os.Stdout)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HTTPClient returns an HTTP client authorized for account.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func (a *Authenticator) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := a.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

// TokenSource returns a token source for account that saves refreshed tokens.
func (a *Authenticator) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	logger := logging.WithAccount(a.logger, account)

	tok, err := a.store.Load(account)
	if err == nil {
		ts := a.persisting(ctx, account, tok)
		// Refreshes an expired access token; revoked grants fail here.
		if _, err = ts.Token(); err == nil {
			return ts, nil
		}
		logger.Warn("stored token is not usable, starting authorization", logging.Err(err))
	} else {
		logger.Debug("no stored token, starting authorization", logging.Err(err))
	}

	tok, err = a.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(account, tok); err != nil {
		return nil, err
	}
	logger.Info("authorization complete", slog.String("token_file", a.store.Path(account)))

	return a.persisting(ctx, account, tok), nil
}

func (a *Authenticator) persisting(ctx context.Context, account string, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingSource{
		base:    a.config.TokenSource(ctx, tok),
		store:   a.store,
		account: account,
		last:    tok.AccessToken,
		logger:  a.logger,
	}
}

// persistingSource writes a token back to the store whenever it changes.
type persistingSource struct {
	base    oauth2.TokenSource
	store   *TokenStore
	account string
	logger  *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.store.Save(s.account, tok); err != nil {
			s.logger.Warn("failed to save refreshed token", logging.Account(s.account), logging.Err(err))
		} else {
			s.last = tok.AccessToken
			s.logger.Debug("saved refreshed token",
				logging.Account(s.account),
				slog.String("access_token", logging.SanitizeToken(tok.AccessToken)),
			)
		}
	}
	return tok, nil
}

// Authorize runs the consent flow: it listens on a random loopback port,
// presents the consent URL and exchanges the returned code for a token.
func (a *Authenticator) Authorize(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start authorization callback listener: %w", err)
	}

	state, err := randomState()
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	conf := *a.config
	conf.RedirectURL = "http://" + listener.Addr().String() + "/"

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("authorization callback server failed", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.prompt(conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization aborted: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler receives the consent redirect. Only the first valid
// callback is delivered; requests with a wrong state are rejected.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	var once sync.Once
	deliver := func(res callbackResult) {
		once.Do(func() { results <- res })
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			http.Error(w, "Authorization was denied. You can close this window.", http.StatusForbidden)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		deliver(callbackResult{code: code})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Authorization complete. You can close this window and return to the terminal.\n")
	})
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
