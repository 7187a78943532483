package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const (
	serverName    = "usgs-water-mcp"
	serverVersion = "1.0.0"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := newUpstreamClient(cfg)

	var eg errgroup.Group

	if cfg.Transport == "stdio" || cfg.Transport == "both" {
		s := server.NewMCPServer(serverName, serverVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		)
		registerTools(s, client)
		eg.Go(func() error {
			log.Printf("<mcp> serving %d tools over stdio", len(toolCatalogue))
			return server.ServeStdio(s)
		})
	}

	if cfg.Transport == "http" || cfg.Transport == "both" {
		eg.Go(func() error {
			return startShimServer(ctx, cfg, client)
		})
	}

	if err := eg.Wait(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
