package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPages(t *testing.T) {
	r, _ := setupRouter(Options{BotName: "ChatBot"})

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"Chat with My Bot", "Hello! I am ChatBot. How can I help you today?"}},
		{"/chat/", []string{"Chat with ChatBot"}},
		{"/about/", []string{"About ChatBot", "Terminal chat interface"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			require.Equal(t, http.StatusOK, resp.Code)
			require.Contains(t, resp.Header().Get("Content-Type"), "text/html")
			for _, w := range tt.want {
				require.Contains(t, resp.Body.String(), w)
			}
		})
	}
}

func TestStaticAssets(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&mockResponder{}, Options{BotName: "TestBot"}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/static/chat.js")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "/get-response/")
}

func TestMCPMount(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r := NewRouter(&mockResponder{}, Options{BotName: "TestBot", MCP: mcp})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusTeapot, resp.Code)
}
