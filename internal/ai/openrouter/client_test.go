package openrouter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func TestGenerateContent(t *testing.T) {
	var gotBody, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": " [{\"candidate_index\": 0, \"score\": 0.7}] "}}]}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(Config{APIKey: "secret", BaseURL: srv.URL + "/"}, zap.NewNop())
	require.NoError(t, err)

	out, err := g.GenerateContent(context.Background(), "be fair", "score them")
	require.NoError(t, err)

	assert.Equal(t, `[{"candidate_index": 0, "score": 0.7}]`, out)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, DefaultModel, gjson.Get(gotBody, "model").String())
	assert.Equal(t, "system", gjson.Get(gotBody, "messages.0.role").String())
	assert.Equal(t, "be fair", gjson.Get(gotBody, "messages.0.content").String())
	assert.Equal(t, "score them", gjson.Get(gotBody, "messages.1.content").String())
}

func TestGenerateContentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		expect string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"error": {"message": "No auth credentials found"}}`, expect: "No auth credentials found"},
		{name: "empty choices", status: http.StatusOK, body: `{"choices": []}`, expect: "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, err := NewGenerator(Config{APIKey: "k", BaseURL: srv.URL}, zap.NewNop())
			require.NoError(t, err)

			_, err = g.GenerateContent(context.Background(), "", "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expect)
		})
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ai.ErrConfiguration)
}
