// cmd/tools/embedding-backfill/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"wastematch/internal/ai/gemini"
	"wastematch/internal/common/config"
	"wastematch/internal/common/database"
	"wastematch/internal/common/logger"
	"wastematch/internal/search"
	"wastematch/internal/store"
)

// embedding-backfill computes vectors for listings that predate the
// embedding pipeline (or whose generation failed) and projects them
// into the search index. Safe to re-run; it only touches listings with
// a NULL embedding.
func main() {
	batchSize := flag.Int("batch", 50, "listings per batch")
	maxBatches := flag.Int("max-batches", 0, "stop after this many batches (0 = run until done)")
	dryRun := flag.Bool("dry-run", false, "report what would be embedded without writing")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch connection failed", zap.Error(err))
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		zapLog.Fatal("gemini client required for backfill", zap.Error(err))
	}

	listings := store.NewListingStore(pg.DB)
	indexer := search.NewListingIndexer(esClient.Client, cfg.Database.Elasticsearch.ListingIndex)

	var processed, embedded, skipped int
	for batch := 0; ; batch++ {
		if *maxBatches > 0 && batch >= *maxBatches {
			break
		}

		pending, err := listings.MissingEmbeddings(ctx, *batchSize)
		if err != nil {
			zapLog.Fatal("listing fetch failed", zap.Error(err))
		}
		if len(pending) == 0 {
			break
		}

		for _, l := range pending {
			processed++

			if *dryRun {
				fmt.Printf("would embed %s (%s)\n", l.ID, l.WasteType)
				continue
			}

			vector := geminiClient.EmbedText(ctx, l.EmbeddingText())
			if len(vector) == 0 {
				skipped++
				zapLog.Warn("embedding unavailable, skipping", zap.String("listingId", l.ID))
				continue
			}

			if err := listings.UpdateEmbedding(ctx, l.ID, vector); err != nil {
				zapLog.Error("embedding update failed", zap.String("listingId", l.ID), zap.Error(err))
				skipped++
				continue
			}

			l.Embedding = vector
			if err := indexer.IndexListing(ctx, l); err != nil {
				zapLog.Warn("index update failed, postgres holds the vector", zap.String("listingId", l.ID), zap.Error(err))
			}
			embedded++

			// The embedding API is rate-limited; pace the batch.
			time.Sleep(200 * time.Millisecond)
		}

		if *dryRun {
			// One batch is enough for a dry-run report; MissingEmbeddings
			// would return the same rows forever.
			break
		}
	}

	fmt.Printf("backfill complete: processed=%d embedded=%d skipped=%d\n", processed, embedded, skipped)
	if skipped > 0 {
		os.Exit(1)
	}
}
