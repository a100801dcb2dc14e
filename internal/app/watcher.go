package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/arcadia-forum/arcadia-client/internal/config"
	"github.com/arcadia-forum/arcadia-client/internal/logger"
	"github.com/arcadia-forum/arcadia-client/internal/session"
	"github.com/arcadia-forum/arcadia-client/internal/storage"
	"github.com/arcadia-forum/arcadia-client/internal/watcher"
	"github.com/arcadia-forum/arcadia-client/pkg/publishers"
	"golang.org/x/time/rate"
)

// poller is the part of watcher.Service the runtime drives.
type poller interface {
	Poll(ctx context.Context) (watcher.Result, error)
}

// Watcher is the forum-watcher runtime. It owns the poll loop, the
// publishers fan-out and the seen-post store.
type Watcher struct {
	cfg      *config.Config
	fanout   *publishers.Fanout
	service  poller
	interval time.Duration
	log      logger.Logger
	store    storage.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, err := publishers.LoadCatalog(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	sinks := catalog.Enabled()
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no enabled publishers in %s", cfg.PublishersFile)
	}

	pubs, err := publishers.DefaultBuilders().BuildAll(ctx, sinks, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubs, log)

	summaries := make([]map[string]string, 0, len(sinks))
	for _, sink := range sinks {
		summaries = append(summaries, map[string]string{"id": sink.ID, "type": sink.Type})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"configured": catalog.Len(),
		"enabled":    len(summaries),
		"publishers": summaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.StorageLocation(), storage.Options{
		PostTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"location":                 redactURL(cfg.StorageLocation()),
		"post_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	// The listing is public; a stored session is used when present so the
	// watcher sees what the logged-in operator sees.
	src := session.Empty()
	if cfg.SessionPath != "" {
		src = session.FileSource(cfg.SessionPath)
	}

	forum, err := NewForumService(cfg, src, log)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, err
	}

	opts := watcher.Options{
		Source:      cfg.AppName,
		PostBaseURL: cfg.PostBaseURL,
	}
	if cfg.PublishRate > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.PublishRate), cfg.PublishBurst)
	}
	service := watcher.NewService(forum.Posts, fanout, store, log, opts)

	return &Watcher{
		cfg:      cfg,
		fanout:   fanout,
		service:  service,
		interval: cfg.WatchInterval,
		log:      log,
		store:    store,
	}, nil
}

// Run polls until the context is cancelled. Failed polls are logged and the
// loop continues.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"publishers_count": w.fanout.Size(),
		"watch_interval":   w.interval.String(),
	})

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce performs a single poll and logs its outcome.
func (w *Watcher) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := w.service.Poll(ctx)
	if err != nil {
		w.log.ErrorObj("watch poll failed", "poll_error", map[string]any{
			"error":      err.Error(),
			"published":  res.Published,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return
	}
	w.log.DebugObj("watch poll finished", "poll_meta", map[string]any{
		"listed":     res.Listed,
		"published":  res.Published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// close releases the publishers and the seen-post store.
func (w *Watcher) close() {
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publishers close failed", "error", err)
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err)
		}
	}
}

// redactURL hides credentials in storage URLs before they are logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
