package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/comigor/chatbot-go/internal/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var aboutFeatures = []string{
	"Web-based chat interface",
	"Terminal chat interface",
	"Best-match responses trained from a bundled corpus",
	"Easy to extend and customize",
}

type pageData struct {
	PageTitle      string
	BotName        string
	WelcomeMessage string
	Description    string
	Features       []string
}

func (h *Handler) welcome() string {
	return fmt.Sprintf("Hello! I am %s. How can I help you today?", h.botName)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	render(w, "chat.html", pageData{
		PageTitle:      "Chat with My Bot",
		BotName:        h.botName,
		WelcomeMessage: h.welcome(),
	})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	render(w, "chat.html", pageData{
		PageTitle:      "Chat with " + h.botName,
		BotName:        h.botName,
		WelcomeMessage: h.welcome(),
	})
}

func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	render(w, "about.html", pageData{
		PageTitle:   "About " + h.botName,
		BotName:     h.botName,
		Description: "This chatbot is built in Go on top of a small best-match response engine.",
		Features:    aboutFeatures,
	})
}

func render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.L.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
