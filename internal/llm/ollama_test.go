package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves /api/generate and /api/tags and records generate requests.
type fakeOllama struct {
	status    int
	lines     []string
	models    []string
	requests  []map[string]any
	generates int
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		f.generates++
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.requests = append(f.requests, body)

		w.Header().Set("Content-Type", "application/x-ndjson")
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		for _, line := range f.lines {
			_, _ = w.Write([]byte(line + "\n"))
		}
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		}
		resp := struct {
			Models []model `json:"models"`
		}{}
		for _, m := range f.models {
			resp.Models = append(resp.Models, model{Name: m, Model: m})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func newTestOllama(t *testing.T, f *fakeOllama) *Ollama {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	o, err := NewOllama(OllamaConfig{Host: srv.URL, Model: "llama3:8b-instruct-q4_0"})
	require.NoError(t, err)
	return o
}

func TestOllama_Complete(t *testing.T) {
	f := &fakeOllama{
		lines: []string{`{"model":"llama3:8b-instruct-q4_0","response":"{\"Category\":\"Work\"}","done":true}`},
	}
	o := newTestOllama(t, f)

	got, err := o.Complete(context.Background(), "classify this", DefaultModelSettings())
	require.NoError(t, err)
	assert.Equal(t, `{"Category":"Work"}`, got.Text)
	assert.Equal(t, "llama3:8b-instruct-q4_0", got.Model)

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "classify this", req["prompt"])
	assert.Equal(t, false, req["stream"])

	opts, ok := req["options"].(map[string]any)
	require.True(t, ok, "options should be sent")
	assert.Equal(t, 0.0, opts["temperature"])
	assert.Equal(t, 0.0, opts["top_p"])
	assert.Equal(t, 1.0, opts["top_k"])
	assert.Equal(t, 1.18, opts["repeat_penalty"])
	assert.Equal(t, 64.0, opts["repeat_last_n"])
	assert.Equal(t, 35.0, opts["num_predict"])
	assert.Equal(t, 8.0, opts["num_batch"])
}

func TestOllama_CompleteStreamedConcatenates(t *testing.T) {
	f := &fakeOllama{
		lines: []string{
			`{"model":"m","response":"{\"Category\":","done":false}`,
			`{"model":"m","response":"\"School\"}","done":true}`,
		},
	}
	o := newTestOllama(t, f)

	settings := DefaultModelSettings()
	settings.Streamed = true
	got, err := o.Complete(context.Background(), "p", settings)
	require.NoError(t, err)
	assert.Equal(t, `{"Category":"School"}`, got.Text)
	assert.Equal(t, true, f.requests[0]["stream"])
}

func TestOllama_CompleteServerError(t *testing.T) {
	f := &fakeOllama{
		status: http.StatusInternalServerError,
		lines:  []string{`{"error":"model requires more system memory"}`},
	}
	o := newTestOllama(t, f)

	completion, err := o.Complete(context.Background(), "p", DefaultModelSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletion))
	assert.Contains(t, err.Error(), "more system memory")
	assert.Empty(t, completion.Text)
	assert.Equal(t, "llama3:8b-instruct-q4_0", completion.Model)
	assert.Positive(t, completion.Duration, "failed calls still report how long they took")
}

func TestOllama_CompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o, err := NewOllama(OllamaConfig{Host: url, Model: "m", Timeout: time.Second})
	require.NoError(t, err)

	_, err = o.Complete(context.Background(), "p", DefaultModelSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletion)
}

func TestOllama_Healthy(t *testing.T) {
	tests := []struct {
		name    string
		models  []string
		wantErr bool
	}{
		{"model present", []string{"llama3:8b-instruct-q4_0"}, false},
		{"model missing", []string{"mistral:latest"}, true},
		{"no models", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOllama(t, &fakeOllama{models: tt.models})
			err := o.Healthy(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCompletion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseHost(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{"http://localhost:11434", "http://localhost:11434", false},
		{"localhost:11434", "http://localhost:11434", false},
		{"https://ollama.example.com", "https://ollama.example.com", false},
		{"", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := ParseHost(tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSameModel(t *testing.T) {
	assert.True(t, sameModel("mistral", "mistral:latest"))
	assert.True(t, sameModel("llama3:8b", "llama3:8b"))
	assert.False(t, sameModel("llama3:8b", "llama3:70b"))
	assert.False(t, sameModel("", "llama3"))
}
