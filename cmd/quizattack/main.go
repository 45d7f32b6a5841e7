package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abrezinsky/quizattack/internal/app"
	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/browser"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/web"
)

var (
	version = "dev"
)

func showBanner(out io.Writer) {
	logo := []string{
		`   ___        _          _   _   _             _    `,
		`  / _ \ _   _(_)____    / \ | |_| |_ __ _  ___| | __`,
		` | | | | | | | |_  /   / _ \| __| __/ _' |/ __| |/ /`,
		` | |_| | |_| | |/ /   / ___ \ |_| || (_| | (__|   < `,
		`  \__\_\\__,_|_/___| /_/   \_\__|\__\__,_|\___|_|\_\`,
	}
	width := 56
	border := strings.Repeat("═", width)

	fmt.Fprintf(out, "\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Fprintf(out, "  %s║%s %-*s%s║%s\n", cyan, yellow, width-1, line, cyan, reset)
	}
	fmt.Fprintf(out, "  %s╚%s╝%s\n", cyan, border, reset)
	fmt.Fprintf(out, "  %s%s%s\n\n", bold, version, reset)
}

// loadDotEnv loads .env from the working directory when present
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func serve(cmd *cobra.Command, cfg *Config) error {
	console := newConsoleWriter(cmd.OutOrStdout())
	appLog := logger.NewWithWriter(console, logger.ParseLevel(cfg.LogLevel))

	if !cfg.NoBanner {
		showBanner(console)
	}
	if cfg.Secret == "" {
		appLog.Warn("No --secret set, player tokens will not survive a restart")
	}
	if cfg.AdminToken == "" {
		cfg.AdminToken = auth.GenerateAdminToken()
	}

	a, err := app.New(appLog, cfg.Options(web.GetTemplatesFS(), web.GetStaticFS()))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()
	appLog.Info("Admin token", "token", cfg.AdminToken, "header", auth.AdminHeader)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !cfg.NoKeyboard {
		kb := &keyboard{
			out:  console,
			log:  appLog,
			url:  cfg.LocalURL(),
			open: browser.Open,
			quit: cancel,
		}
		restore := startKeyboard(kb, console)
		defer restore()
	}

	return a.Run(ctx, cfg.Addr())
}

func main() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCmd(&Config{}, serve)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
