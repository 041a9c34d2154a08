// Command gatewayd runs the multi-protocol AI gateway as a standalone
// daemon: load configuration and accounts, start the hot-reload config
// watcher, and serve until SIGINT/SIGTERM.
//
// Grounded on Compresr-ai-Context-Gateway's cmd/agent.go bootstrap sequence
// (loadEnvFiles, signal.Notify(SIGINT, SIGTERM), bounded-context Shutdown)
// and internal/tui/status_bar.go's term.IsTerminal gate, generalized from
// "wrap a child agent process" to "run the gateway as the only process".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/gateway"
	"github.com/antigravity/gateway/internal/monitoring"
	"github.com/antigravity/gateway/internal/oauth"
	"github.com/antigravity/gateway/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", "gui_config.json", "path to gui_config.json")
	accountsDir := flag.String("accounts-dir", "accounts", "directory of account credential files")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	loadEnvFiles()
	setupLogging(*debug)

	store, err := config.NewStore(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("gatewayd: failed to load config")
	}
	store.Watch(config.ConfigPollInterval)

	cfg := store.Snapshot()

	refresher := oauth.NewRefresher("", "")
	pool := accountpool.New(*accountsDir, refresher)
	if err := pool.Load(); err != nil {
		log.Fatal().Err(err).Str("dir", *accountsDir).Msg("gatewayd: failed to load accounts")
	}

	var accessLog *monitoring.AccessLog
	if cfg.Observability.AccessLogEnabled {
		path := cfg.Observability.AccessLogPath
		if path == "" {
			path = filepath.Join(filepath.Dir(*configPath), "access_log.sqlite")
		}
		accessLog, err = monitoring.NewAccessLog(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("gatewayd: failed to open access log")
		}
	}

	limiter := ratelimit.New()
	gw := gateway.New(store, pool, limiter, accessLog)
	srv := gateway.NewServer(gw)

	printBanner(cfg, pool.Len())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("gatewayd: server exited")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("gatewayd: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("gatewayd: graceful shutdown failed")
		}
	}

	store.Stop()
	if accessLog != nil {
		_ = accessLog.Close()
	}
}

// loadEnvFiles cascades .env.local over .env, matching the teacher's
// "load the most specific file, let later values lose" convention: godotenv
// never overrides a variable that is already set, so .env.local loads first.
// Missing files are silently ignored; .env is optional in a daemon deployment.
func loadEnvFiles() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func printBanner(cfg *config.Config, accountCount int) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	fmt.Printf("antigravity gateway — auth=%s accounts=%d passthrough=%v\n",
		cfg.EffectiveAuthMode(), accountCount, cfg.Zai.Eligible())
}
