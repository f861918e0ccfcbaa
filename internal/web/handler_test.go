package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/chatbot-go/internal/chatlog"
)

type mockResponder struct {
	mu      sync.Mutex
	inputs  []string
	reply   func(string) string
	panicOn string
}

func (m *mockResponder) Respond(_ context.Context, text string) string {
	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	m.mu.Unlock()
	if m.panicOn != "" && text == m.panicOn {
		panic("engine exploded")
	}
	if m.reply != nil {
		return m.reply(text)
	}
	return "echo: " + text
}

func (m *mockResponder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

type recorded struct {
	sessionID, user, bot string
}

type mockRecorder struct {
	ch  chan recorded
	err error
}

func (m *mockRecorder) Record(_ context.Context, sessionID, userMessage, botResponse string) (chatlog.Message, error) {
	m.ch <- recorded{sessionID, userMessage, botResponse}
	return chatlog.Message{}, m.err
}

func setupRouter(opts Options) (http.Handler, *mockResponder) {
	responder := &mockResponder{}
	if opts.BotName == "" {
		opts.BotName = "TestBot"
	}
	return NewRouter(responder, opts), responder
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), "body: %s", resp.Body.String())
	return body
}

func TestGetResponse_GetWithMessage(t *testing.T) {
	r, responder := setupRouter(Options{})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?message=Hello", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	body := decode(t, resp)
	require.Equal(t, "Hello", body["user_message"])
	require.Equal(t, "echo: Hello", body["bot_response"])
	require.Equal(t, true, body["success"])
	require.NotContains(t, body, "error")
	require.Equal(t, 1, responder.calls())
}

func TestGetResponse_TrimsMessage(t *testing.T) {
	r, responder := setupRouter(Options{})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?message="+url.QueryEscape("  How are you?  "), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := decode(t, resp)
	require.Equal(t, "How are you?", body["user_message"])
	require.Equal(t, []string{"How are you?"}, responder.inputs)
}

func TestGetResponse_MissingMessage(t *testing.T) {
	for _, target := range []string{"/get-response/", "/get-response/?message=", "/get-response/?message=%20%20%09"} {
		r, responder := setupRouter(Options{})

		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code, target)
		body := decode(t, resp)
		require.Equal(t, "No message provided", body["error"])
		require.Equal(t, "", body["user_message"])
		require.Equal(t, "Please type a message!", body["bot_response"])
		require.NotContains(t, body, "success")
		require.Zero(t, responder.calls(), "engine must not be called for %q", target)
	}
}

func TestGetResponse_PostJSON(t *testing.T) {
	r, _ := setupRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/get-response/", strings.NewReader(`{"message": "Hi there"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	require.Equal(t, "Hi there", body["user_message"])
	require.Equal(t, "echo: Hi there", body["bot_response"])
}

func TestGetResponse_PostJSONNonStringMessage(t *testing.T) {
	r, responder := setupRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/get-response/", strings.NewReader(`{"message": 42}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := decode(t, resp)
	require.Equal(t, "No message provided", body["error"])
	require.Zero(t, responder.calls())
}

func TestGetResponse_PostFormFallback(t *testing.T) {
	r, _ := setupRouter(Options{})

	form := url.Values{"message": {"Hello from a form"}}
	req := httptest.NewRequest(http.MethodPost, "/get-response/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := decode(t, resp)
	require.Equal(t, "Hello from a form", body["user_message"])
	require.Equal(t, true, body["success"])
}

func TestGetResponse_PostMultipartFallback(t *testing.T) {
	r, _ := setupRouter(Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", "Multipart hello"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/get-response/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := decode(t, resp)
	require.Equal(t, "Multipart hello", body["user_message"])
}

func TestGetResponse_PostEmptyBody(t *testing.T) {
	r, responder := setupRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/get-response/", nil)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Please type a message!", decode(t, resp)["bot_response"])
	require.Zero(t, responder.calls())
}

func TestGetResponse_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodDelete, http.MethodPut, http.MethodPatch} {
		r, responder := setupRouter(Options{})

		req := httptest.NewRequest(method, "/get-response/?message=Hello", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusMethodNotAllowed, resp.Code, method)
		require.Equal(t, map[string]any{"error": "Method not allowed"}, decode(t, resp))
		require.Zero(t, responder.calls())
	}
}

func TestGetResponse_ResponderPanics(t *testing.T) {
	responder := &mockResponder{panicOn: "Hello"}
	r := NewRouter(responder, Options{BotName: "TestBot"})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?message=Hello", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	require.Equal(t, "Failed to get bot response", body["error"])
	require.Equal(t, "Hello", body["user_message"])
	require.Equal(t, "Sorry, I encountered an error. Please try again.", body["bot_response"])
	require.Equal(t, false, body["success"])
}

func TestGetResponse_EmptyReplyIsFailure(t *testing.T) {
	responder := &mockResponder{reply: func(string) string { return "  " }}
	r := NewRouter(responder, Options{BotName: "TestBot"})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?message=Hello", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, false, decode(t, resp)["success"])
}

func TestGetResponse_SequentialQuestions(t *testing.T) {
	r, _ := setupRouter(Options{})

	var replies []string
	for _, q := range []string{"Hello", "How are you?"} {
		req := httptest.NewRequest(http.MethodGet, "/get-response/?message="+url.QueryEscape(q), nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)
		replies = append(replies, decode(t, resp)["bot_response"].(string))
	}
	require.Len(t, replies, 2)
	for _, reply := range replies {
		require.NotEmpty(t, reply)
	}
}

func TestGetResponse_RecordsExchange(t *testing.T) {
	rec := &mockRecorder{ch: make(chan recorded, 2)}
	r, _ := setupRouter(Options{Recorder: rec})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?message=Hello", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookie, cookies[0].Name)

	select {
	case got := <-rec.ch:
		require.Equal(t, recorded{cookies[0].Value, "Hello", "echo: Hello"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("exchange was not recorded")
	}

	// the cookie is reused on the next request
	req = httptest.NewRequest(http.MethodGet, "/get-response/?message=Again", nil)
	req.AddCookie(cookies[0])
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Empty(t, resp.Result().Cookies())

	select {
	case got := <-rec.ch:
		require.Equal(t, cookies[0].Value, got.sessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("exchange was not recorded")
	}
}

func TestGetResponse_RecorderFailureIsInvisible(t *testing.T) {
	rec := &mockRecorder{ch: make(chan recorded, 1), err: errors.New("disk full")}
	r, _ := setupRouter(Options{Recorder: rec})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?message=Hello", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, true, decode(t, resp)["success"])
	<-rec.ch
}

func TestGetResponse_EmptyMessageNotRecorded(t *testing.T) {
	rec := &mockRecorder{ch: make(chan recorded, 1)}
	r, _ := setupRouter(Options{Recorder: rec})

	req := httptest.NewRequest(http.MethodGet, "/get-response/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Empty(t, resp.Result().Cookies())
	select {
	case <-rec.ch:
		t.Fatal("empty message must not be recorded")
	case <-time.After(50 * time.Millisecond):
	}
}
