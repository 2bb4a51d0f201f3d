package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/ecolog/internal/analysis"
	"github.com/starford/ecolog/internal/archive"
	"github.com/starford/ecolog/internal/export"
	"github.com/starford/ecolog/internal/illustration"
	"github.com/starford/ecolog/internal/imagefetch"
	"github.com/starford/ecolog/internal/index"
	"github.com/starford/ecolog/internal/notebookservice"
	"github.com/starford/ecolog/internal/sse"
	"github.com/starford/ecolog/internal/storage"
	"github.com/starford/ecolog/internal/vision"
)

const retryDelay = 500 * time.Millisecond

// services holds everything both the HTTP server and the MCP server run on.
type services struct {
	store     storage.DocumentStore
	index     *index.DB
	broker    *sse.Broker
	vision    *vision.Client
	notebooks *notebookservice.Service
	analysis  *analysis.Service
	exporter  *export.Exporter
}

func newServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*services, error) {
	for _, p := range []string{cfg.Store.Path, cfg.Index.Path} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	store, err := storage.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(ctx, db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	s := &services{
		store:  store,
		index:  db,
		broker: sse.NewBroker(2 * time.Second),
		vision: vision.NewClient(vision.Options{
			APIKey:     cfg.Vision.APIKey,
			Model:      cfg.Vision.Model,
			BaseURL:    cfg.Vision.BaseURL,
			Timeout:    cfg.Vision.Timeout,
			MaxRetries: cfg.Vision.MaxRetries,
			RetryDelay: retryDelay,
		}),
	}

	image := illustration.NewClient(illustration.Options{
		APIKey:     cfg.Image.APIKey,
		Model:      cfg.Image.Model,
		Size:       cfg.Image.Size,
		Quality:    cfg.Image.Quality,
		BaseURL:    cfg.Image.BaseURL,
		Timeout:    cfg.Image.Timeout,
		MaxRetries: cfg.Image.MaxRetries,
		RetryDelay: retryDelay,
	})
	fetcher := imagefetch.New(cfg.Export.FetchTimeout)

	opts := []analysis.Option{analysis.WithPublisher(s.broker)}
	if cfg.Archive.Enabled {
		mirror, err := archive.New(ctx, archive.Options{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			UseSSL:    cfg.Archive.UseSSL,
		}, fetcher)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		logger.Info("illustration archive enabled",
			slog.String("host", mirror.Host()),
			slog.String("bucket", cfg.Archive.Bucket))
		opts = append(opts, analysis.WithArchive(mirror))
	}

	s.analysis = analysis.NewService(s.vision, image, analysis.NewResultStore(), opts...)
	s.exporter = export.New(fetcher)
	s.notebooks = notebookservice.NewService(store, db, s.broker)
	return s, nil
}

// Close stops the broker and releases the store and index.
func (s *services) Close() {
	s.broker.Close()
	if err := s.vision.Close(); err != nil {
		slog.Warn("vision client close failed", slog.String("error", err.Error()))
	}
	if err := s.index.Close(); err != nil {
		slog.Warn("index close failed", slog.String("error", err.Error()))
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("store close failed", slog.String("error", err.Error()))
	}
}

// watch re-syncs the index on external edits and tells SSE clients.
func (s *services) watch(ctx context.Context, dataPath string, logger *slog.Logger) {
	err := index.Watch(ctx, s.index, s.store, dataPath, logger, func(path string) {
		s.broker.Publish(sse.Event{
			Type: sse.NotebooksUpdated,
			Data: map[string]string{"path": path},
		})
	})
	if err != nil {
		logger.Warn("watcher failed", slog.String("error", err.Error()))
	}
}
