// Package main starts the stub inventory server: an in-memory stand-in
// for the remote inventory API, used for local development and tests.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/inventorypro/invctl/internal/config"
	"github.com/inventorypro/invctl/internal/logger"
	"github.com/inventorypro/invctl/internal/repository"
	"github.com/inventorypro/invctl/internal/server/handler/http"
	"github.com/inventorypro/invctl/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.StubAddress

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Wire the in-memory repository, service and handlers.
	repo := repository.NewMemoryItemRepository()
	inventoryService := service.NewInventoryService(repo)
	itemsHandler := &http.ItemsHandler{Service: inventoryService}

	// The stub accepts any non-empty bearer token; verifying real tokens
	// is the remote API's responsibility.
	verify := func(token string) (string, bool) { return "dev", true }

	router := http.NewRouter(itemsHandler, zapLogger, verify)

	server := &nethttp.Server{Addr: addr, Handler: router}

	zapLogger.Info("starting stub inventory server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("stub server stopped", zap.Error(err))
	}
}
