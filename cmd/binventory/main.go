package main

import (
	"log"

	"binventory/internal/ai/provider"
	"binventory/internal/config"
	"binventory/internal/db"
	"binventory/internal/logging"
	"binventory/internal/service"
	"binventory/internal/store"
	"binventory/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	locationStore := store.NewLocationStore(database)
	areaStore := store.NewAreaStore(database)
	binStore := store.NewBinStore(database)
	activityStore := store.NewActivityStore(database)

	client := provider.New(logger)
	commandService := service.NewCommandService(locationStore, binStore, areaStore, client, logger)
	batchService := service.NewBatchService(binStore, areaStore, activityStore, logger)

	server := web.NewServer(locationStore, binStore, activityStore, commandService, batchService, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
