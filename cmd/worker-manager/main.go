// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wastematch/internal/ai/gemini"
	"wastematch/internal/common/config"
	"wastematch/internal/common/database"
	"wastematch/internal/common/logger"
	"wastematch/internal/common/observability"
	"wastematch/internal/logistics"
	"wastematch/internal/matching"
	"wastematch/internal/search"
	"wastematch/internal/store"
	"wastematch/pkg/registry"

	ge "wastematch/internal/workers/matching/generate-embedding"
	lms "wastematch/internal/workers/matching/llm-match-scoring"
	rm "wastematch/internal/workers/matching/rank-matches"

	ql "wastematch/internal/workers/marketplace/query-listings"

	ma "wastematch/internal/workers/notification/match-alert"

	ns "wastematch/internal/workers/logistics/nearby-search"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.App.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	zapLog.Info("Activity registry loaded", zap.Int("activities", len(reg.Activities)))

	// --- Zeebe client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Gemini ---
	// A missing API key degrades matching instead of blocking startup:
	// embeddings come back empty and LLM scoring reports not-configured.
	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		zapLog.Warn("gemini unavailable, matching runs degraded", zap.Error(err))
	}
	var scorer *gemini.Scorer
	if geminiClient != nil {
		scorer = gemini.NewScorer(geminiClient, log)
	} else {
		scorer = gemini.NewScorer(nil, log)
	}

	// --- Stores ---
	listingStore := store.NewListingStore(pg.DB)
	requirementStore := store.NewRequirementStore(pg.DB)
	formulaStore := store.NewFormulaStore(pg.DB)

	// --- Ranking strategy chain ---
	ranker := matching.NewRanker()
	ranker.ExactMatchBoost = cfg.Matching.ExactMatchBoost
	ranker.MinPercent = cfg.Matching.MinMatchPercent
	ranker.MaxResults = cfg.Matching.MaxResults

	var strategies []matching.Strategy
	for _, name := range cfg.Matching.Strategies {
		switch name {
		case "elasticsearch":
			vs := search.NewVectorSearch(esClient.Client, cfg.Database.Elasticsearch.ListingIndex, log)
			vs.ExactMatchBoost = cfg.Matching.ExactMatchBoost
			vs.MinPercent = cfg.Matching.MinMatchPercent
			strategies = append(strategies, vs)
		case "in-memory":
			strategies = append(strategies, matching.NewInMemoryStrategy(ranker))
		default:
			zapLog.Warn("unknown ranking strategy, skipping", zap.String("strategy", name))
		}
	}
	chain := matching.NewChain(log, strategies...)

	indexer := search.NewListingIndexer(esClient.Client, cfg.Database.Elasticsearch.ListingIndex)

	// --- Mappls logistics client ---
	mapplsClient := logistics.NewClient(
		cfg.Logistics.Mappls.ClientID,
		cfg.Logistics.Mappls.ClientSecret,
		cfg.Logistics.Mappls.TokenURL,
		cfg.Logistics.Mappls.BaseURL,
		time.Duration(cfg.Logistics.Mappls.Timeout)*time.Millisecond,
	)

	// --- Register workers ---

	if cfg.Workers[ge.TaskType].Enabled {
		geCfg := ge.LoadConfig()
		geCfg.Timeout = time.Duration(cfg.Workers[ge.TaskType].Timeout) * time.Millisecond
		handler := ge.NewHandler(geCfg, listingStore, geminiClient, indexer, log)
		startWorker(zeebeClient, ge.TaskType, cfg.Workers[ge.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rm.TaskType].Enabled {
		rmCfg := rm.LoadConfig()
		rmCfg.Timeout = time.Duration(cfg.Workers[rm.TaskType].Timeout) * time.Millisecond
		rmCfg.MaxResults = cfg.Matching.MaxResults
		handler := rm.NewHandler(rmCfg, requirementStore, listingStore, formulaStore, geminiClient, chain, log)
		startWorker(zeebeClient, rm.TaskType, cfg.Workers[rm.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[lms.TaskType].Enabled {
		lmsCfg := lms.LoadConfig()
		lmsCfg.Timeout = time.Duration(cfg.Workers[lms.TaskType].Timeout) * time.Millisecond
		handler := lms.NewHandler(lmsCfg, requirementStore, listingStore, formulaStore, scorer, log)
		startWorker(zeebeClient, lms.TaskType, cfg.Workers[lms.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ql.TaskType].Enabled {
		qlCfg := ql.LoadConfig()
		qlCfg.Timeout = time.Duration(cfg.Workers[ql.TaskType].Timeout) * time.Millisecond
		handler := ql.NewHandler(qlCfg, listingStore, formulaStore, redis.Client, log)
		startWorker(zeebeClient, ql.TaskType, cfg.Workers[ql.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ma.TaskType].Enabled {
		maCfg := ma.LoadConfig()
		maCfg.Timeout = time.Duration(cfg.Workers[ma.TaskType].Timeout) * time.Millisecond
		maCfg.EmailEnabled = cfg.Notifications.Email.Enabled
		maCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
		if cfg.Notifications.Email.FromEmail != "" {
			maCfg.FromEmail = cfg.Notifications.Email.FromEmail
		}
		if cfg.Notifications.AWS.Region != "" {
			maCfg.AWSRegion = cfg.Notifications.AWS.Region
		}
		handler, err := ma.NewHandler(maCfg, pg.DB, log)
		if err != nil {
			zapLog.Fatal("failed to create match-alert handler", zap.Error(err))
		}
		startWorker(zeebeClient, ma.TaskType, cfg.Workers[ma.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ns.TaskType].Enabled {
		nsCfg := ns.LoadConfig()
		nsCfg.Timeout = time.Duration(cfg.Workers[ns.TaskType].Timeout) * time.Millisecond
		handler := ns.NewHandler(nsCfg, mapplsClient, log)
		startWorker(zeebeClient, ns.TaskType, cfg.Workers[ns.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & metrics server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
