package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"http://gpu-box:11434", "http://gpu-box:11434"},
		{"https://ollama.example.com", "https://ollama.example.com"},
		{"127.0.0.1:11434", "http://127.0.0.1:11434"},
		{"localhost:9000", "http://localhost:9000"},
		{"0.0.0.0", "http://0.0.0.0:11434"},
		{"gpu-box", "http://gpu-box:11434"},
		{"[::1]:11434", "http://[::1]:11434"},
		{" gpu-box:8080 ", "http://gpu-box:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			u, err := HostURL(tt.host)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestHostURLFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "localhost:9999")
	u, err := HostURL("")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9999", u.Host)

	t.Setenv("OLLAMA_HOST", "")
	u, err = HostURL("")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.True(t, strings.HasSuffix(u.Host, ":11434"), u.Host)
}

func TestHostURLRejectsGarbage(t *testing.T) {
	_, err := HostURL("http://[::1")
	assert.Error(t, err)
}

func TestNewClientWithSchemelessHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	assert.NoError(t, client.Heartbeat(context.Background()))
}
