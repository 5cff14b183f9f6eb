package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"console/internal/api"
	"console/internal/config"
	"console/internal/events"
	"console/internal/preference"
	"console/internal/service"
	"console/internal/upload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long:  `Serve the REST API, the collection pages under /ui, uploaded files and the /api/events stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	hub := events.NewHub()
	svc, err := openServices(cfg, hub)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		svc.Close(closeCtx)
	}()

	uploader, filesDir, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}
	prefs, err := newPreferences(ctx, cfg, svc.settings)
	if err != nil {
		return err
	}

	svc.imports.RestartWatchers(ctx)

	srv := api.New(api.Deps{
		Collections: svc.collections,
		Records:     svc.records,
		Settings:    svc.settings,
		Imports:     svc.imports,
		Uploader:    uploader,
		Preferences: prefs,
		Events:      hub,
		FilesDir:    filesDir,
	})
	return api.Run(ctx, cfg.Addr(), srv.Routes())
}

// newUploader returns the configured uploader and, for disk uploads, the
// directory to serve at /files/.
func newUploader(ctx context.Context, cfg *config.Config) (upload.Uploader, string, error) {
	if cfg.UploadBackend == config.UploadMinio {
		u, err := upload.NewMinioUploader(ctx, upload.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("minio uploader: %w", err)
		}
		log.Printf("[upload] storing uploads in bucket %s at %s", cfg.Minio.Bucket, u.BaseURL())
		return u, "", nil
	}
	u, err := upload.NewDiskUploader(cfg.FilesDir(), "/files")
	if err != nil {
		return nil, "", err
	}
	return u, cfg.FilesDir(), nil
}

// newPreferences picks the remote preference store per app.
func newPreferences(ctx context.Context, cfg *config.Config, settings *service.SettingsService) (func(string) preference.Store, error) {
	if cfg.PreferenceBackend == config.PreferenceRedis {
		client, err := preference.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis preferences: %w", err)
		}
		store := preference.NewRedisStore(client, cfg.Redis.Prefix)
		return func(string) preference.Store { return store }, nil
	}
	return func(appID string) preference.Store {
		return settings.PreferenceStore(service.AppScope(appID))
	}, nil
}
