package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/cards"
	"github.com/abrezinsky/quizattack/internal/engine"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/handlers"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/services"
	"github.com/abrezinsky/quizattack/internal/testutil"
	"github.com/abrezinsky/quizattack/internal/websocket"
)

func createTestTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layout.html": &fstest.MapFile{Data: []byte(`{{define "layout"}}<html><head>{{block "head" .}}{{end}}</head><body>{{template "content" .}}</body></html>{{end}}`)},
		"index.html":  &fstest.MapFile{Data: []byte(`{{define "content"}}Index{{end}}`)},
		"join.html":   &fstest.MapFile{Data: []byte(`{{define "content"}}Join {{.RoomCode}}{{if .HasPassword}} password{{end}}{{end}}`)},
		"lobby.html":  &fstest.MapFile{Data: []byte(`{{define "content"}}Lobby {{.RoomCode}}{{end}}`)},
		"play.html":   &fstest.MapFile{Data: []byte(`{{define "content"}}Play {{.RoomCode}}{{end}}`)},
		"quiz.html":   &fstest.MapFile{Data: []byte(`{{define "content"}}Quiz{{end}}`)},
		"error.html": &fstest.MapFile{Data: []byte(`{{define "head"}}{{if .RedirectTo}}<meta http-equiv="refresh" content="{{.RedirectSeconds}};url={{.RedirectTo}}">{{end}}{{end}}` +
			`{{define "content"}}{{.Title}}: {{.Message}} <a href="/">home</a>{{end}}`)},
	}
}

type pageSetup struct {
	handler http.Handler
	rooms   *services.RoomService
	configs gameconfig.Store
}

// recordingLogger keeps the messages passed to Error
type recordingLogger struct {
	handlers.NoopHTTPLogger
	errors []string
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.errors = append(l.errors, msg)
}

func setupHandlersWithTemplates(t *testing.T) *pageSetup {
	t.Helper()
	return setupPages(t, createTestTemplatesFS(), handlers.NoopHTTPLogger{})
}

func setupPages(t *testing.T, templatesFS fstest.MapFS, httpLog handlers.HTTPLogger) *pageSetup {
	t.Helper()

	repo := testutil.NewTestRepository(t)
	log := logger.Discard()
	catalog := cards.Default()
	tokens := auth.New("test-secret")
	configs := gameconfig.NewBlobStore(repo)

	settings := services.NewSettingsService(log, repo, "http://quiz.local")
	packs := services.NewPackService(log, repo)
	if _, err := packs.SeedDefaultPack(context.Background()); err != nil {
		t.Fatalf("failed to seed packs: %v", err)
	}
	play := services.NewPlayService(log, configs, services.PlayOptions{Timings: engine.DefaultTimings(), Catalog: catalog})
	t.Cleanup(play.Close)
	rooms := services.NewRoomService(log, repo, settings, configs, play, catalog, tokens)
	hub := websocket.New(log, play, tokens)

	h, err := handlers.New(
		handlers.Services{Room: rooms, Pack: packs, Play: play, Settings: settings},
		catalog,
		templatesFS,
		handlers.NewStaticServer(fstest.MapFS{"css/app.css": &fstest.MapFile{Data: []byte("body{}")}}),
		tokens,
		hub,
		httpLog,
	)
	if err != nil {
		t.Fatalf("failed to create handlers: %v", err)
	}

	return &pageSetup{handler: h.Router(), rooms: rooms, configs: configs}
}

func (s *pageSetup) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestNew_WithMissingTemplate(t *testing.T) {
	templatesFS := createTestTemplatesFS()
	delete(templatesFS, "play.html")

	_, err := handlers.New(handlers.Services{}, cards.Default(), templatesFS, nil, nil, nil, handlers.NoopHTTPLogger{})
	if err == nil {
		t.Fatal("expected error for missing play template")
	}
	if !strings.Contains(err.Error(), "play.html") {
		t.Errorf("expected error to name play.html, got %v", err)
	}
}

func TestNew_WithInvalidTemplateContent(t *testing.T) {
	templatesFS := createTestTemplatesFS()
	templatesFS["index.html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{.Broken`)}

	if _, err := handlers.New(handlers.Services{}, cards.Default(), templatesFS, nil, nil, nil, handlers.NoopHTTPLogger{}); err == nil {
		t.Fatal("expected error for invalid template")
	}
}

func TestIndexAndQuizPages(t *testing.T) {
	setup := setupHandlersWithTemplates(t)

	for path, want := range map[string]string{"/": "Index", "/quiz": "Quiz"} {
		w := setup.get(path)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("%s: expected body to contain %q, got %q", path, want, w.Body.String())
		}
	}
}

func TestRender_LogsTemplateErrors(t *testing.T) {
	templatesFS := createTestTemplatesFS()
	templatesFS["index.html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}Index {{.NoSuchField}}{{end}}`)}
	log := &recordingLogger{}
	setup := setupPages(t, templatesFS, log)

	w := setup.get("/")
	if w.Code != http.StatusOK {
		t.Errorf("expected status already written, got %d", w.Code)
	}
	if len(log.errors) != 1 || log.errors[0] != "Failed to render page" {
		t.Errorf("expected one render error logged, got %v", log.errors)
	}

	log.errors = nil
	setup.get("/quiz")
	if len(log.errors) != 0 {
		t.Errorf("expected no errors for a good page, got %v", log.errors)
	}
}

func TestStaticFiles(t *testing.T) {
	setup := setupHandlersWithTemplates(t)

	w := setup.get("/static/css/app.css")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestJoinAndLobbyPages(t *testing.T) {
	setup := setupHandlersWithTemplates(t)
	m, err := setup.rooms.CreateRoom(context.Background(), services.CreateRoomRequest{Nickname: "Alice", Password: "pw"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	w := setup.get("/join/" + strings.ToLower(m.Room.Code))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Join "+m.Room.Code+" password") {
		t.Errorf("unexpected join page %q", w.Body.String())
	}

	w = setup.get("/lobby/" + m.Room.Code)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Lobby "+m.Room.Code) {
		t.Errorf("unexpected lobby page %d %q", w.Code, w.Body.String())
	}
}

func TestRoomPages_NotFound(t *testing.T) {
	setup := setupHandlersWithTemplates(t)

	for _, path := range []string{"/join/NOPE22", "/lobby/NOPE22", "/play/NOPE22"} {
		w := setup.get(path)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "Room not found") || !strings.Contains(body, `href="/"`) {
			t.Errorf("%s: expected not-found notice with home link, got %q", path, body)
		}
	}
}

func TestPlayPage_MissingConfigRedirectsHome(t *testing.T) {
	setup := setupHandlersWithTemplates(t)
	m, err := setup.rooms.CreateRoom(context.Background(), services.CreateRoomRequest{Nickname: "Alice"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	w := setup.get("/play/" + m.Room.Code)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `content="2;url=/"`) {
		t.Errorf("expected a 2 second redirect home, got %q", body)
	}
	if strings.Contains(body, "Play ") {
		t.Error("play page must not render without a config")
	}
}

func TestPlayPage_InvalidConfig(t *testing.T) {
	setup := setupHandlersWithTemplates(t)
	m, err := setup.rooms.CreateRoom(context.Background(), services.CreateRoomRequest{Nickname: "Alice"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := setup.configs.Put(context.Background(), gameconfig.Key(m.Room.Code), []byte(`{"roomCode":"`+m.Room.Code+`","players":[]}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	w := setup.get("/play/" + m.Room.Code)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPlayPage_RunningGame(t *testing.T) {
	setup := setupHandlersWithTemplates(t)
	ctx := context.Background()
	m, err := setup.rooms.CreateRoom(ctx, services.CreateRoomRequest{Nickname: "Alice"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if _, err := setup.rooms.StartGame(ctx, m.Room.Code, m.Player.ID); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	w := setup.get("/play/" + m.Room.Code)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Play "+m.Room.Code) {
		t.Errorf("unexpected play page %q", w.Body.String())
	}
}
