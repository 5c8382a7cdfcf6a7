package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akolanti/pharmadoc/internal/handlers"
	"github.com/akolanti/pharmadoc/internal/job"
	"github.com/akolanti/pharmadoc/internal/mcpServer"
	"github.com/akolanti/pharmadoc/internal/middleware"
	"github.com/akolanti/pharmadoc/internal/server"
	"github.com/akolanti/pharmadoc/internal/worker"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

func newServeCmd() *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the ingestion workers and the MCP endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listenAddr != "" {
				appConfig.Server.ListenAddr = listenAddr
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides config)")
	return cmd
}

func runServe(parent context.Context) error {
	logger := logger_i.NewLogger("main")
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, appConfig)
	if err != nil {
		logger.Error("External services failed to initialize", "error", err)
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Error closing services", "error", err)
		}
	}()

	jobService := job.InitJobService(job.ServiceConfig{JobStore: rt.jobStore})
	pool := worker.NewPool(jobService, rt.rag)
	pool.Start()
	defer pool.Stop()

	h := handlers.NewHandler(rt.rag, jobService, appConfig.DataDir)
	mcp := mcpServer.NewServer(rt.rag)
	router := server.NewRouter(h, middleware.New(middleware.NewDefaultRateLimiter()), mcp.HTTPHandler())

	return server.New(appConfig.Server.ListenAddr, router).Run(ctx)
}
