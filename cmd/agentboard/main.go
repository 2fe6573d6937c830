// Agentboard: a multi-transport MCP task board for autonomous agents.
//
// Agents connect over stdio, the unified streamable-HTTP endpoint, or the
// legacy SSE dual-channel protocol and share one task board backed by a
// single SQLite file.
//
// Usage:
//
//	agentboard serve                      # stdio transport
//	agentboard serve --transport dual     # both HTTP variants on one port
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentboard/agentboard/internal/config"
	"github.com/agentboard/agentboard/internal/server"
	"github.com/agentboard/agentboard/internal/session"
	"github.com/agentboard/agentboard/internal/storage"
	"github.com/agentboard/agentboard/internal/task"
	"github.com/agentboard/agentboard/internal/transport"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "agentboard",
		Short:   "MCP task board for autonomous agents",
		Version: server.Version,
	}
	root.AddCommand(newServeCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var (
		transportFlag string
		hostFlag      string
		portFlag      int
		dbFlag        string
		logLevelFlag  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the task-board server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Flags win over environment.
			if cmd.Flags().Changed("transport") {
				cfg.Transport = transportFlag
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = hostFlag
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = portFlag
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbFlag
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevelFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&transportFlag, "transport", "stdio", "transport: stdio, streamable, sse, or dual")
	cmd.Flags().StringVar(&hostFlag, "host", "127.0.0.1", "HTTP listen host")
	cmd.Flags().IntVar(&portFlag, "port", 8371, "HTTP listen port")
	cmd.Flags().StringVar(&dbFlag, "db", "agentboard.db", "path to the SQLite database file")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", "info", "log verbosity: debug, info, warn, or error")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	// Logs go to stderr so the stdio transport keeps stdout to itself.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	engine, err := storage.Open(cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	factory := server.NewFactory(task.NewService(engine, log), log)

	if cfg.Transport == "stdio" {
		log.Info("serving", "transport", "stdio", "db", cfg.DBPath)
		return mcpserver.ServeStdio(factory.NewHandler())
	}

	registry := session.NewRegistry(log)
	router := transport.NewRouter(transport.Mode(cfg.Transport), factory, registry, log)
	srv := transport.NewHTTPServer(cfg.Addr(), router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving", "transport", cfg.Transport, "addr", cfg.Addr(), "db", cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "sessions", registry.Len())
	registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
