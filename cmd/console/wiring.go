package main

import (
	"context"
	"fmt"

	"console/internal/config"
	_ "console/internal/etl/sources" // register all sources via init()
	"console/internal/service"
	"console/internal/storage"
)

// services is the storage-backed service graph shared by serve, mcp and
// the local commands.
type services struct {
	db          *storage.DB
	collections *service.CollectionService
	records     *service.RecordService
	settings    *service.SettingsService
	imports     *service.ImportService
}

func openServices(cfg *config.Config, emitter service.EventEmitter) (*services, error) {
	db, err := storage.New(cfg.DatabasePath, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	collStore := storage.NewCollectionStore(db)
	recStore := storage.NewRecordStore(db)
	collections := service.NewCollectionService(collStore, recStore, emitter)

	return &services{
		db:          db,
		collections: collections,
		records:     service.NewRecordService(collections, recStore, emitter),
		settings:    service.NewSettingsService(storage.NewSettingsStore(db)),
		imports:     service.NewImportService(storage.NewImportStore(db), collections, collStore, recStore, emitter),
	}, nil
}

// Close stops watchers, waits for running imports and closes the database.
func (s *services) Close(ctx context.Context) {
	s.imports.Stop()
	s.imports.WaitRunning(ctx)
	s.db.Close()
}
