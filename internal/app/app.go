package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/cards"
	"github.com/abrezinsky/quizattack/internal/engine"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/handlers"
	"github.com/abrezinsky/quizattack/internal/leaderboard"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/repository"
	"github.com/abrezinsky/quizattack/internal/services"
	"github.com/abrezinsky/quizattack/internal/websocket"
)

const (
	redisPingTimeout = 3 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// Options configure a new App
type Options struct {
	DBPath string

	// RedisAddr switches config blobs and the leaderboard mirror to redis.
	// Empty keeps everything in sqlite.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ConfigTTL     time.Duration

	Secret  string
	BaseURL string

	// AdminToken guards operator endpoints. Empty locks them.
	AdminToken string

	IdleTimeout       time.Duration
	RoomMaxAge        time.Duration
	SimulateOpponents bool
	Timings           engine.Timings

	TemplatesFS fs.FS
	StaticFS    fs.FS
}

// App holds all application dependencies
type App struct {
	log      logger.Logger
	opts     Options
	repo     *repository.Repository
	redis    *redis.Client
	play     *services.PlayService
	rooms    *services.RoomService
	hub      *websocket.Hub
	handlers *handlers.Handlers

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates and initializes a new application instance
func New(log logger.Logger, opts Options) (*App, error) {
	repo, err := repository.New(opts.DBPath)
	if err != nil {
		return nil, err
	}
	a := &App{log: log, opts: opts, repo: repo}

	var configs gameconfig.Store = gameconfig.NewBlobStore(repo)
	var standings services.LeaderboardStore
	if opts.RedisAddr != "" {
		client, err := connectRedis(opts)
		if err != nil {
			repo.Close()
			return nil, err
		}
		a.redis = client
		configs = gameconfig.NewRedisStore(client, opts.ConfigTTL)
		standings = leaderboard.NewRedisStore(client, opts.ConfigTTL)
		log.Info("Using redis for game configs", "addr", opts.RedisAddr)
	}

	tokens := auth.New(opts.Secret)
	tokens.SetAdminToken(opts.AdminToken)
	catalog := cards.Default()

	settings := services.NewSettingsService(log, repo, opts.BaseURL)
	packs := services.NewPackService(log, repo)
	if _, err := packs.SeedDefaultPack(context.Background()); err != nil {
		a.closeStores()
		return nil, fmt.Errorf("failed to seed quiz packs: %w", err)
	}

	a.play = services.NewPlayService(log, configs, services.PlayOptions{
		Timings:           opts.Timings,
		SimulateOpponents: opts.SimulateOpponents,
		Catalog:           catalog,
		Leaderboard:       standings,
	})
	a.rooms = services.NewRoomService(log, repo, settings, configs, a.play, catalog, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.hub = websocket.New(log, a.play, tokens)
	a.hub.Start(ctx)
	a.play.SetBroadcaster(a.hub)
	a.rooms.SetBroadcaster(a.hub)

	var staticServer http.Handler
	if opts.StaticFS != nil {
		staticServer = handlers.NewStaticServer(opts.StaticFS)
	}

	a.handlers, err = handlers.New(
		handlers.Services{Room: a.rooms, Pack: packs, Play: a.play, Settings: settings},
		catalog,
		opts.TemplatesFS,
		staticServer,
		tokens,
		a.hub,
		log,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	go a.play.StartReaper(ctx, opts.IdleTimeout)
	go a.purgeRooms(ctx, opts.RoomMaxAge)

	return a, nil
}

func connectRedis(opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.RedisAddr, err)
	}
	return client, nil
}

// purgeRooms deletes lobby rooms older than maxAge until ctx is done
func (a *App) purgeRooms(ctx context.Context, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(maxAge / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.purgeOnce(ctx, maxAge)
		}
	}
}

func (a *App) purgeOnce(ctx context.Context, maxAge time.Duration) {
	n, err := a.rooms.PurgeStaleRooms(ctx, maxAge)
	if err != nil {
		a.log.Warn("Failed to purge stale rooms", "error", err)
		return
	}
	if n > 0 {
		a.log.Info("Purged stale rooms", "count", n)
	}
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close stops background work and releases the stores. Safe to call twice.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		if a.play != nil {
			a.play.Close()
		}
		a.closeStores()
	})
}

func (a *App) closeStores() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close redis client", "error", err)
		}
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("Failed to close database", "error", err)
	}
}

// Run serves HTTP on addr until ctx is done, then shuts the server down
func (a *App) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	port := ln.Addr().(*net.TCPAddr).Port
	baseURL := a.opts.BaseURL
	if baseURL == "" {
		// Share links need an address other devices on the LAN can reach
		baseURL = fmt.Sprintf("http://%s:%d", getPreferredIP(realNetworkProvider{}), port)
		a.setDefaultBaseURL(baseURL)
	}

	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	a.log.Info("Server starting", "url", baseURL)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for share links)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.repo.GetSetting(ctx, "base_url")

	if existing != "" && !strings.Contains(existing, "localhost") {
		return
	}
	if err := a.repo.SetSetting(ctx, "base_url", baseURL); err != nil {
		a.log.Warn("Failed to set default base_url", "error", err)
		return
	}
	a.log.Info("Default base URL set", "url", baseURL)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider lists network interfaces
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges. Falls back to localhost.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
