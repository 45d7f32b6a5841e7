package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/cards"
	"github.com/abrezinsky/quizattack/internal/services"
	"github.com/abrezinsky/quizattack/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// PageData holds the data passed to page templates
type PageData struct {
	Title           string
	RoomCode        string
	HasPassword     bool
	Message         string
	RedirectTo      string
	RedirectAfterMS int64
}

// RedirectSeconds rounds the redirect delay up to whole seconds for meta refresh
func (p PageData) RedirectSeconds() int64 {
	return (p.RedirectAfterMS + 999) / 1000
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index *template.Template
	Join  *template.Template
	Lobby *template.Template
	Play  *template.Template
	Quiz  *template.Template
	Error *template.Template
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Room         services.RoomServicer
	Pack         services.PackServicer
	Play         services.PlayServicer
	Settings     services.SettingsServicer
	Catalog      *cards.Catalog
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Log          HTTPLogger
	templates    *Templates
	staticServer http.Handler
}

// HTTPLogger is the slice of logger.Logger the handlers need: the request
// logging toggle and error reporting
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
	Error(msg string, args ...any)
}

// Services groups the service dependencies of the handlers
type Services struct {
	Room     services.RoomServicer
	Pack     services.PackServicer
	Play     services.PlayServicer
	Settings services.SettingsServicer
}

// New creates a new Handlers instance with all dependencies
func New(
	svc Services,
	catalog *cards.Catalog,
	templatesFS fs.FS,
	staticServer http.Handler,
	tokens *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Room:         svc.Room,
		Pack:         svc.Pack,
		Play:         svc.Play,
		Settings:     svc.Settings,
		Catalog:      catalog,
		Auth:         tokens,
		Hub:          hub,
		Log:          log,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NoopHTTPLogger is a test logger that never logs
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

func (NoopHTTPLogger) Error(string, ...any) {}

// NewForTesting creates a Handlers instance without loading templates (for testing API endpoints)
func NewForTesting(svc Services, catalog *cards.Catalog, tokens *auth.Auth) *Handlers {
	return &Handlers{
		Room:     svc.Room,
		Pack:     svc.Pack,
		Play:     svc.Play,
		Settings: svc.Settings,
		Catalog:  catalog,
		Auth:     tokens,
		Log:      NoopHTTPLogger{},
		// templates left nil - API endpoints don't use templates
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	pages := []struct {
		name string
		dst  **template.Template
	}{
		{"index.html", &t.Index},
		{"join.html", &t.Join},
		{"lobby.html", &t.Lobby},
		{"play.html", &t.Play},
		{"quiz.html", &t.Quiz},
		{"error.html", &t.Error},
	}

	for _, p := range pages {
		tmpl, err := template.ParseFS(templatesFS, "layout.html", p.name)
		if err != nil {
			return nil, fmt.Errorf("%s template: %w", p.name, err)
		}
		*p.dst = tmpl
	}

	return t, nil
}
