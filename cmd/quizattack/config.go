package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abrezinsky/quizattack/internal/app"
	"github.com/abrezinsky/quizattack/internal/engine"
	"github.com/abrezinsky/quizattack/internal/logger"
)

// Config holds every command line and environment setting
type Config struct {
	Bind string
	Port int
	DB   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ConfigTTL     time.Duration

	Secret     string
	AdminToken string
	BaseURL    string
	LogLevel   string

	IdleTimeout       time.Duration
	RoomMaxAge        time.Duration
	SimulateOpponents bool

	NoBanner   bool
	NoKeyboard bool
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.DB == "" {
		return errors.New("--db must not be empty")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.RedisDB)
	}
	if c.ConfigTTL < 0 {
		return fmt.Errorf("--config-ttl must not be negative: %s", c.ConfigTTL)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("--idle-timeout must not be negative: %s", c.IdleTimeout)
	}
	if c.RoomMaxAge < 0 {
		return fmt.Errorf("--room-max-age must not be negative: %s", c.RoomMaxAge)
	}
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("unknown log level %q (use debug, info, warn or error)", c.LogLevel)
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("--base-url must start with http:// or https://: %s", c.BaseURL)
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// LocalURL is where the operator's own browser reaches the server
func (c *Config) LocalURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// Options maps the config onto app.Options
func (c *Config) Options(templatesFS, staticFS fs.FS) app.Options {
	return app.Options{
		DBPath:            c.DB,
		RedisAddr:         c.RedisAddr,
		RedisPassword:     c.RedisPassword,
		RedisDB:           c.RedisDB,
		ConfigTTL:         c.ConfigTTL,
		Secret:            c.Secret,
		AdminToken:        c.AdminToken,
		BaseURL:           strings.TrimRight(c.BaseURL, "/"),
		IdleTimeout:       c.IdleTimeout,
		RoomMaxAge:        c.RoomMaxAge,
		SimulateOpponents: c.SimulateOpponents,
		Timings:           engine.DefaultTimings(),
		TemplatesFS:       templatesFS,
		StaticFS:          staticFS,
	}
}

func newCmd(cfg *Config, runE func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZATTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "quizattack",
		Short: "Live multiplayer quiz server with power-up cards.",
		Long: `Quiz Attack serves a lobby and a live quiz game to phones and laptops on the
local network. Players join a room by code, the host starts the game and
everyone answers timed questions while drawing and playing cards.

Keyboard shortcuts (unless --no-keyboard):
  o  open the home page in a browser
  h  toggle HTTP request logging
  l  cycle log level (debug, info, warn, error)
  q  quit
  ?  show shortcuts`,
		Args:    cobra.NoArgs,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runE(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZATTACK_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: QUIZATTACK_PORT)")
	fs.StringVar(&cfg.DB, "db", "quizattack.db", "sqlite database path (env: QUIZATTACK_DB)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address for game configs and leaderboards; empty uses sqlite (env: QUIZATTACK_REDIS_ADDR)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", "", "redis password (env: QUIZATTACK_REDIS_PASSWORD)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number (env: QUIZATTACK_REDIS_DB)")
	fs.DurationVar(&cfg.ConfigTTL, "config-ttl", 6*time.Hour, "expiry of game configs kept in redis, 0 keeps them (env: QUIZATTACK_CONFIG_TTL)")
	fs.StringVar(&cfg.Secret, "secret", "", "player token signing secret; random when empty (env: QUIZATTACK_SECRET)")
	fs.StringVar(&cfg.AdminToken, "admin-token", "", "token for changing server settings over HTTP; random when empty (env: QUIZATTACK_ADMIN_TOKEN)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "public URL used in share links; detected from the LAN address when empty (env: QUIZATTACK_BASE_URL)")
	fs.StringVarP(&cfg.LogLevel, "log-level", "l", "info", "log level: debug, info, warn, error (env: QUIZATTACK_LOG_LEVEL)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 30*time.Minute, "stop game sessions with no player commands for this long, 0 disables (env: QUIZATTACK_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.RoomMaxAge, "room-max-age", 24*time.Hour, "delete lobby rooms older than this, 0 disables (env: QUIZATTACK_ROOM_MAX_AGE)")
	fs.BoolVar(&cfg.SimulateOpponents, "simulate-opponents", false, "answer for idle opponents after a random delay (env: QUIZATTACK_SIMULATE_OPPONENTS)")
	fs.BoolVar(&cfg.NoBanner, "no-banner", false, "skip the startup banner (env: QUIZATTACK_NO_BANNER)")
	fs.BoolVar(&cfg.NoKeyboard, "no-keyboard", false, "disable keyboard shortcuts (env: QUIZATTACK_NO_KEYBOARD)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizattack {{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
