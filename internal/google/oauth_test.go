package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountName(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccountName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenStore_Path(t *testing.T) {
	store := NewTokenStore("/tmp/tokens")
	tests := []struct {
		account string
		want    string
	}{
		{"default", "google-default.token"},
		{"work", "google-work.token"},
	}

	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			got := store.Path(tt.account)
			if filepath.Base(got) != tt.want {
				t.Errorf("Path() = %v, want base %v", got, tt.want)
			}
		})
	}
}

func TestTokenStore_SaveLoad(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "nested"))

	if store.Has("default") {
		t.Fatal("Has() should be false before Save")
	}
	if _, err := store.Load("default"); err == nil {
		t.Fatal("Load() should fail when no token was saved")
	}

	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Save("default", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Has("default") {
		t.Error("Has() should be true after Save")
	}

	info, err := os.Stat(store.Path("default"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file permissions = %o, want 600", perm)
	}

	got, err := store.Load("default")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestTokenStore_RejectsInvalidAccount(t *testing.T) {
	store := NewTokenStore(t.TempDir())

	if store.Has("../escape") {
		t.Error("Has() should return false for invalid account name")
	}
	if err := store.Save("../escape", &oauth2.Token{AccessToken: "x"}); err == nil {
		t.Error("Save() should reject invalid account name")
	}
}

func TestTokenStore_CorruptFile(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	if err := os.WriteFile(store.Path("default"), []byte("access refresh"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("default"); err == nil {
		t.Error("Load() should fail on a file that is not JSON")
	}
}

func TestCredentialsPath(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv(CredentialsEnv, "")
		_, err := CredentialsPath()
		if !errors.Is(err, ErrCredentialsNotFound) {
			t.Errorf("expected ErrCredentialsNotFound, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv(CredentialsEnv, filepath.Join(t.TempDir(), "nope.json"))
		_, err := CredentialsPath()
		if !errors.Is(err, ErrCredentialsNotFound) {
			t.Errorf("expected ErrCredentialsNotFound, got %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		t.Setenv(CredentialsEnv, t.TempDir())
		_, err := CredentialsPath()
		if !errors.Is(err, ErrCredentialsNotFound) {
			t.Errorf("expected ErrCredentialsNotFound, got %v", err)
		}
	})

	t.Run("exists", func(t *testing.T) {
		path := writeCredentials(t, "http://127.0.0.1/token")
		t.Setenv(CredentialsEnv, path)
		got, err := CredentialsPath()
		if err != nil {
			t.Fatalf("CredentialsPath() error = %v", err)
		}
		if got != path {
			t.Errorf("CredentialsPath() = %q, want %q", got, path)
		}
	})
}

func TestLoadOAuthConfig(t *testing.T) {
	conf, err := LoadOAuthConfig(writeCredentials(t, "https://oauth2.googleapis.com/token"))
	if err != nil {
		t.Fatalf("LoadOAuthConfig() error = %v", err)
	}
	if conf.ClientID != "test-client" {
		t.Errorf("ClientID = %q, want test-client", conf.ClientID)
	}
	if len(conf.Scopes) != 1 || conf.Scopes[0] != "https://www.googleapis.com/auth/gmail.readonly" {
		t.Errorf("Scopes = %v, want gmail.readonly only", conf.Scopes)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOAuthConfig(bad); err == nil {
		t.Error("LoadOAuthConfig() should fail for a file without client credentials")
	}
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
		wantErr    bool
	}{
		{"valid", "state=s1&code=abc", http.StatusOK, "abc", false},
		{"wrong state", "state=other&code=abc", http.StatusBadRequest, "", false},
		{"missing code", "state=s1", http.StatusBadRequest, "", false},
		{"denied", "state=s1&error=access_denied", http.StatusForbidden, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)
			h := callbackHandler("s1", results)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			select {
			case res := <-results:
				if res.code != tt.wantCode {
					t.Errorf("code = %q, want %q", res.code, tt.wantCode)
				}
				if (res.err != nil) != tt.wantErr {
					t.Errorf("err = %v, wantErr %v", res.err, tt.wantErr)
				}
			default:
				if tt.wantCode != "" || tt.wantErr {
					t.Error("expected a callback result")
				}
			}
		})
	}
}

func TestAuthenticator_ConsentFlow(t *testing.T) {
	tokenSrv := newTokenServer(t)
	store := NewTokenStore(t.TempDir())

	var prompted atomic.Int32
	auth := NewAuthenticator(testConfig(tokenSrv.URL), store, WithPrompt(func(authURL string) {
		prompted.Add(1)
		go completeConsent(t, authURL, "the-code")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := auth.HTTPClient(ctx, "work")
	if err != nil {
		t.Fatalf("HTTPClient() error = %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}
	if prompted.Load() != 1 {
		t.Errorf("prompted %d times, want 1", prompted.Load())
	}

	tok, err := store.Load("work")
	if err != nil {
		t.Fatalf("token should be saved: %v", err)
	}
	if tok.AccessToken != "access-1" || tok.RefreshToken != "refresh-1" {
		t.Errorf("saved token = %+v", tok)
	}
}

func TestAuthenticator_UsesStoredToken(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	if err := store.Save("default", &oauth2.Token{
		AccessToken:  "stored",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	auth := NewAuthenticator(testConfig("http://127.0.0.1:1/token"), store, WithPrompt(func(string) {
		t.Error("consent should not be requested when a valid token is stored")
	}))

	ts, err := auth.TokenSource(context.Background(), "default")
	if err != nil {
		t.Fatalf("TokenSource() error = %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "stored" {
		t.Errorf("AccessToken = %q, want stored", tok.AccessToken)
	}
}

func TestAuthenticator_RefreshIsPersisted(t *testing.T) {
	tokenSrv := newTokenServer(t)
	store := NewTokenStore(t.TempDir())
	if err := store.Save("default", &oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh-0",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	auth := NewAuthenticator(testConfig(tokenSrv.URL), store, WithPrompt(func(string) {
		t.Error("consent should not be requested when the token can be refreshed")
	}))

	if _, err := auth.TokenSource(context.Background(), "default"); err != nil {
		t.Fatalf("TokenSource() error = %v", err)
	}

	tok, err := store.Load("default")
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "access-1" {
		t.Errorf("refreshed token should be saved, got %q", tok.AccessToken)
	}
}

func TestAuthenticator_ContextCancelled(t *testing.T) {
	auth := NewAuthenticator(testConfig("http://127.0.0.1:1/token"), NewTokenStore(t.TempDir()),
		WithPrompt(func(string) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := auth.Authorize(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// newTokenServer fakes the OAuth token endpoint, issuing access-N tokens.
func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	var issued atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		grant := r.PostForm.Get("grant_type")
		if grant == "authorization_code" && r.PostForm.Get("code") != "the-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		n := issued.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-" + strconv.Itoa(int(n)),
			"refresh_token": "refresh-" + strconv.Itoa(int(n)),
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: DefaultOAuthScopes,
	}
}

// completeConsent plays the browser: it follows the consent URL's redirect_uri
// with the given code and the original state.
func completeConsent(t *testing.T, authURL, code string) {
	u, err := url.Parse(authURL)
	if err != nil {
		t.Errorf("invalid auth URL: %v", err)
		return
	}
	q := u.Query()
	redirect := q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=" + url.QueryEscape(code)

	resp, err := http.Get(redirect)
	if err != nil {
		t.Errorf("callback request failed: %v", err)
		return
	}
	_ = resp.Body.Close()
}

func writeCredentials(t *testing.T, tokenURI string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"installed": map[string]any{
			"client_id":     "test-client",
			"client_secret": "test-secret",
			"auth_uri":      "https://accounts.google.com/o/oauth2/auth",
			"token_uri":     tokenURI,
			"redirect_uris": []string{"http://localhost"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}
