package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"wikigraph/backend/internal/provider"
	"wikigraph/backend/internal/store"
	"wikigraph/backend/internal/view"
	"wikigraph/backend/pkg/config"
	"wikigraph/backend/pkg/logger"
)

// pageViewsExport mirrors the wiki page-views dump format: one item per
// month, articles ordered by view count
type pageViewsExport struct {
	Items []struct {
		Articles []struct {
			Article string `json:"article"`
			Views   int    `json:"views"`
		} `json:"articles"`
	} `json:"items"`
}

func main() {
	var (
		filePath   = flag.String("file", "", "path to a wiki page-views JSON export")
		pageLimit  = flag.Int("limit", 1000, "maximum number of pages to import")
		initSchema = flag.Bool("init", false, "initialize the database schema before importing")
		perMinute  = flag.Int("rate", 60, "provider requests allowed per minute")
		workers    = flag.Int("workers", 4, "concurrent synthesis pipelines")
	)
	flag.Parse()

	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()
	log := logger.Get()

	if *filePath == "" {
		log.Fatal("Missing required -file flag")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer st.Close()

	if *initSchema {
		if err := st.InitSchema(ctx); err != nil {
			log.Fatal("Failed to initialize schema", zap.Error(err))
		}
	}

	wiki := provider.NewWiki(cfg.WikiAPIURL)
	inference := provider.NewInference(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ChatModelID, cfg.EmbeddingModelID, cfg.SpeechModelID)
	contentProvider := provider.New(wiki, inference)
	manager := view.NewManager(st, contentProvider, cfg.EdgesLimit)

	names, err := readArticleNames(*filePath, *pageLimit)
	if err != nil {
		log.Fatal("Failed to read export file", zap.Error(err))
	}
	log.Info("Starting import",
		zap.Int("pages", len(names)),
		zap.Int("rate_per_minute", *perMinute),
		zap.Int("workers", *workers),
	)
	start := time.Now()

	// Token bucket shared by both passes keeps the provider call rate bounded
	// regardless of worker count
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(*perMinute)), 1)

	// First pass: synthesize views without edges so similarity lookups in the
	// second pass can see the whole batch
	created := importViews(ctx, log, manager, limiter, names, *workers)

	// Second pass: edge population over everything that was created or
	// already present
	populated := populateEdges(ctx, log, st, manager, contentProvider, limiter, names, *workers, cfg.EdgesLimit)

	log.Info("Import finished",
		zap.Int("views", created),
		zap.Int("populated", populated),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func readArticleNames(path string, limit int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var export pageViewsExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}
	if len(export.Items) == 0 {
		return nil, fmt.Errorf("export file has no items")
	}

	articles := export.Items[0].Articles
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	names := make([]string, 0, len(articles))
	for _, a := range articles {
		names = append(names, a.Article)
	}
	return names, nil
}

func importViews(ctx context.Context, log *zap.Logger, manager *view.Manager, limiter *rate.Limiter, names []string, workers int) int {
	var created int
	results := make(chan bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range names {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			v, err := manager.ReadOrCreateView(gctx, name, false)
			if err != nil {
				log.Error("Failed to build view", zap.String("page", name), zap.Error(err))
				results <- false
				return nil
			}
			results <- v != nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("Import pass aborted", zap.Error(err))
	}
	close(results)
	for ok := range results {
		if ok {
			created++
		}
	}
	return created
}

func populateEdges(ctx context.Context, log *zap.Logger, st *store.Store, manager *view.Manager, contentProvider *provider.Provider, limiter *rate.Limiter, names []string, workers, edgesLimit int) int {
	var populated int
	results := make(chan bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range names {
		g.Go(func() error {
			v, err := st.GetViewByPageName(gctx, name)
			if err != nil || v == nil {
				results <- false
				return nil
			}
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			src, err := contentProvider.FetchContent(gctx, v.PageName)
			if err != nil {
				log.Error("Failed to fetch context", zap.String("page", name), zap.Error(err))
				results <- false
				return nil
			}
			if err := manager.PopulateEdges(gctx, v, src.FullText, true, edgesLimit); err != nil {
				log.Error("Failed to populate edges", zap.String("page", name), zap.Error(err))
				results <- false
				return nil
			}
			results <- true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("Edge population pass aborted", zap.Error(err))
	}
	close(results)
	for ok := range results {
		if ok {
			populated++
		}
	}
	return populated
}
