package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/comigor/chatbot-go/internal/chatlog"
	"github.com/comigor/chatbot-go/internal/logger"
)

const (
	sessionCookie = "chat_session"
	maxBodyBytes  = 1 << 20

	msgNoMessage     = "No message provided"
	msgPleaseType    = "Please type a message!"
	msgBotFailed     = "Failed to get bot response"
	msgBotFailedUser = "Sorry, I encountered an error. Please try again."
)

var errEmptyReply = errors.New("responder returned an empty reply")

// Responder produces the bot's answer for a message.
type Responder interface {
	Respond(ctx context.Context, text string) string
}

// Recorder persists exchanges.
type Recorder interface {
	Record(ctx context.Context, sessionID, userMessage, botResponse string) (chatlog.Message, error)
}

// Envelope is the JSON body returned by /get-response/.
type Envelope struct {
	Error       string `json:"error,omitempty"`
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	Success     *bool  `json:"success,omitempty"`
}

// Handler serves the chat pages and the response endpoint.
type Handler struct {
	responder Responder
	recorder  Recorder
	botName   string
}

// NewHandler creates the HTTP handler. recorder may be nil.
func NewHandler(responder Responder, botName string, recorder Recorder) *Handler {
	return &Handler{
		responder: responder,
		recorder:  recorder,
		botName:   botName,
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/chat/", h.handleChat)
	r.Get("/about/", h.handleAbout)
	r.HandleFunc("/get-response/", h.handleGetResponse)
	r.Handle("/static/*", staticHandler())
}

func (h *Handler) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	var message string
	switch r.Method {
	case http.MethodGet:
		message = r.URL.Query().Get("message")
	case http.MethodPost:
		message = readPostMessage(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	message = strings.TrimSpace(message)
	if message == "" {
		respondJSON(w, http.StatusOK, Envelope{
			Error:       msgNoMessage,
			UserMessage: "",
			BotResponse: msgPleaseType,
		})
		return
	}

	reply, err := h.respond(r.Context(), message)
	if err != nil {
		logger.L.Error("failed to get bot response", "error", err, "message", message)
		failed := false
		respondJSON(w, http.StatusOK, Envelope{
			Error:       msgBotFailed,
			UserMessage: message,
			BotResponse: msgBotFailedUser,
			Success:     &failed,
		})
		return
	}

	if h.recorder != nil {
		h.record(r.Context(), h.sessionID(w, r), message, reply)
	}

	ok := true
	respondJSON(w, http.StatusOK, Envelope{
		UserMessage: message,
		BotResponse: reply,
		Success:     &ok,
	})
}

// respond shields the handler from a misbehaving responder.
func (h *Handler) respond(ctx context.Context, message string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panic: %v", r)
		}
	}()

	reply = h.responder.Respond(ctx, message)
	if strings.TrimSpace(reply) == "" {
		return "", errEmptyReply
	}
	return reply, nil
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := chatlog.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// record writes the exchange in the background; the response never waits on it.
func (h *Handler) record(ctx context.Context, sessionID, message, reply string) {
	go func(ctx context.Context) {
		if _, err := h.recorder.Record(ctx, sessionID, message, reply); err != nil {
			logger.L.Warn("failed to record chat message", "error", err, "session", sessionID)
		}
	}(context.WithoutCancel(ctx))
}

// readPostMessage reads "message" from a JSON object body, falling back to
// form fields when the body is not a JSON object.
func readPostMessage(w http.ResponseWriter, r *http.Request) string {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.L.Warn("read body error", "error", err)
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil && payload != nil {
		s, _ := payload["message"].(string)
		return s
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return r.PostFormValue("message")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
