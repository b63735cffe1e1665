package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/volcengine/veadk-go/apps"
	"github.com/volcengine/veadk-go/apps/a2a_app"
	"google.golang.org/adk/agent"

	"github.com/zhengjr9/cli-agent/internal/a2a"
	"github.com/zhengjr9/cli-agent/internal/cli"
	"github.com/zhengjr9/cli-agent/internal/config"
	"github.com/zhengjr9/cli-agent/internal/logging"
	"github.com/zhengjr9/cli-agent/internal/proxy"
)

func main() {
	cfg := config.Load()

	logCloser, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		slog.Error("invalid logging configuration", "error", err)
		os.Exit(2)
	}
	defer logCloser.Close()

	runner := cli.NewRunner(cli.Options{
		Command: cfg.CLICommand,
		Args:    cfg.CLIArgs,
		Dir:     cfg.CLIWorkDir,
		Env:     cfg.CLIEnv,
		Timeout: cfg.CLITimeout,
	})
	if !runner.Available() {
		slog.Warn("cli executable not found; requests will fail until it is installed", "command", cfg.CLICommand)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := proxy.New(cfg, runner)
	proxyErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			proxyErr <- err
		}
	}()

	slog.Info("OpenAI API proxy server running",
		"listen", srv.Addr(),
		"cli", cfg.CLICommand,
		"base_url", "http://localhost:"+strconv.Itoa(cfg.Port)+"/v1",
		"a2a_enabled", cfg.A2AEnabled,
	)

	a2aErr := make(chan error, 1)
	if cfg.A2AEnabled {
		cliAgent, err := a2a.New(a2a.AgentConfig{
			Name:        cfg.AgentName,
			Description: cfg.AgentDesc,
			Runner:      runner,
		})
		if err != nil {
			slog.Error("failed to create A2A agent", "error", err)
			os.Exit(1)
		}

		slog.Info("starting A2A server", "port", cfg.A2APort, "agent_name", cfg.AgentName)

		inner := a2a_app.NewAgentkitA2AServerApp(
			apps.DefaultApiConfig().SetPort(cfg.A2APort),
		)
		wrapped := &loggingApp{BasicApp: inner}

		go func() {
			if err := wrapped.Run(ctx, &apps.RunConfig{
				AgentLoader: agent.NewSingleLoader(cliAgent),
			}); err != nil {
				a2aErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("proxy shutdown error", "error", err)
		}
	case err := <-proxyErr:
		slog.Error("proxy server error", "error", err)
		os.Exit(1)
	case err := <-a2aErr:
		slog.Error("A2A server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// loggingApp wraps a BasicApp so the A2A router gets the same request
// logging as the proxy.
type loggingApp struct {
	apps.BasicApp
}

// Run overrides the embedded Run so that apps.Run receives `w` as the app
// argument. Without this, the embedded Run calls apps.Run with the inner app
// and the SetupRouters override below is never registered.
func (w *loggingApp) Run(ctx context.Context, config *apps.RunConfig) error {
	return apps.Run(ctx, config, w)
}

func (w *loggingApp) SetupRouters(router *mux.Router, config *apps.RunConfig) error {
	if err := w.BasicApp.SetupRouters(router, config); err != nil {
		return err
	}
	router.Use(proxy.LoggingMiddleware)
	return nil
}
