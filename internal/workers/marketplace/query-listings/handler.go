// internal/workers/marketplace/query-listings/handler.go
package querylistings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/common/metrics"
	"wastematch/internal/matching"
	"wastematch/internal/models"
)

const TaskType = "query-listings"

// cacheKey holds the full active listing set; filters are applied
// after the fetch so one key serves every marketplace query.
const cacheKey = "marketplace:active-listings"

// fallbackCO2Savings is used when no emission formula covers a
// material. It keeps the marketplace sort stable for exotic wastes.
const fallbackCO2Savings = 1.7

type ListingStore interface {
	GetActive(ctx context.Context) ([]models.Listing, error)
}

type FormulaStore interface {
	GetAll(ctx context.Context) (map[string]models.Formula, error)
}

type Handler struct {
	config       *Config
	listings     ListingStore
	formulas     FormulaStore
	cache        redis.Cmdable
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, listings ListingStore, formulas FormulaStore, cache redis.Cmdable, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		listings:     listings,
		formulas:     formulas,
		cache:        cache,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.ErrCodeValidationFailed)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewValidationFailedError(fmt.Sprintf("failed to parse job variables: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute serves the marketplace listing query cache-aside: Redis
// first, Postgres on miss. A cache outage degrades to the database
// instead of failing the query.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	listings, source := h.loadListings(ctx)
	if listings == nil {
		var err error
		listings, err = h.listings.GetActive(ctx)
		if err != nil {
			return nil, err
		}
		source = SourceDatabase
		h.storeInCache(ctx, listings)
	}

	filtered := filterListings(listings, input)
	views := h.enrich(ctx, filtered)

	return &Output{
		Listings: views,
		Count:    len(views),
		Source:   source,
	}, nil
}

// loadListings returns nil when the cache cannot serve the query.
func (h *Handler) loadListings(ctx context.Context) ([]models.Listing, string) {
	payload, err := h.cache.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		metrics.ListingCacheHits.WithLabelValues("miss").Inc()
		return nil, ""
	}
	if err != nil {
		metrics.ListingCacheHits.WithLabelValues("miss").Inc()
		h.logger.Warn("listing cache unavailable, falling back to database", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ""
	}

	var listings []models.Listing
	if err := json.Unmarshal(payload, &listings); err != nil {
		metrics.ListingCacheHits.WithLabelValues("miss").Inc()
		h.logger.Warn("corrupt cache entry, falling back to database", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ""
	}

	metrics.ListingCacheHits.WithLabelValues("hit").Inc()
	return listings, SourceCache
}

func (h *Handler) storeInCache(ctx context.Context, listings []models.Listing) {
	payload, err := json.Marshal(listings)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, cacheKey, payload, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to populate listing cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func filterListings(listings []models.Listing, input *Input) []models.Listing {
	wantMaterial := matching.NormalizeMaterial(input.WasteType)
	wantCity := strings.ToLower(strings.TrimSpace(input.City))

	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if wantMaterial != "" && matching.NormalizeMaterial(l.WasteType) != wantMaterial {
			continue
		}
		if wantCity != "" && strings.ToLower(strings.TrimSpace(l.City)) != wantCity {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}

// enrich attaches CO2 savings to each listing. The embedding vector is
// stripped; it is an internal detail the marketplace never renders.
func (h *Handler) enrich(ctx context.Context, listings []models.Listing) []ListingView {
	formulas, err := h.formulas.GetAll(ctx)
	if err != nil {
		h.logger.Warn("emission formulas unavailable, using fallback savings", map[string]interface{}{
			"error": err.Error(),
		})
		formulas = nil
	}

	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		l.Embedding = nil
		savings := fallbackCO2Savings
		if f, ok := formulas[matching.NormalizeMaterial(l.WasteType)]; ok {
			savings = f.CO2SavingsPerTon()
		}
		views = append(views, ListingView{Listing: l, CO2SavingsPerTon: savings})
	}
	return views
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("listing query completed", map[string]interface{}{
		"jobKey": job.GetKey(),
		"count":  output.Count,
		"source": output.Source,
	})
}

func errorCode(err error) string {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
