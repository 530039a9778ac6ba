// internal/workers/matching/generate-embedding/handler.go
package generateembedding

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/common/metrics"
	"wastematch/internal/common/validation"
	"wastematch/internal/models"
)

const TaskType = "generate-embedding"

// Embedder produces a vector for a piece of text. A nil result is a
// degraded condition, not an error: the listing stays searchable by
// the fallback ranker.
type Embedder interface {
	EmbedText(ctx context.Context, text string) []float64
}

// ListingStore is the slice of the persistence layer this worker needs.
type ListingStore interface {
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float64) error
}

// Indexer projects the listing into the vector search index.
type Indexer interface {
	IndexListing(ctx context.Context, listing models.Listing) error
}

type Handler struct {
	config       *Config
	listings     ListingStore
	embedder     Embedder
	indexer      Indexer
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, listings ListingStore, embedder Embedder, indexer Indexer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		listings:     listings,
		embedder:     embedder,
		indexer:      indexer,
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

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.ErrCodeValidationFailed)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, apperrors.NewValidationFailedError(result.Summary())
	}

	return &Input{ListingID: variables["listingId"].(string)}, nil
}

// Execute computes and persists the embedding for one listing. A
// provider outage yields embeddingAvailable=false rather than a job
// failure so process flows keep moving.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	listing, err := h.listings.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	vector := h.embedder.EmbedText(ctx, listing.EmbeddingText())
	generatedAt := time.Now().UTC().Format(time.RFC3339)

	if len(vector) == 0 {
		h.logger.Warn("embedding unavailable, listing left without vector", map[string]interface{}{
			"listingId": input.ListingID,
		})
		return &Output{
			ListingID:          input.ListingID,
			EmbeddingAvailable: false,
			GeneratedAt:        generatedAt,
		}, nil
	}

	if err := h.listings.UpdateEmbedding(ctx, input.ListingID, vector); err != nil {
		return nil, err
	}

	listing.Embedding = vector
	if err := h.indexer.IndexListing(ctx, *listing); err != nil {
		// Postgres already holds the vector; the index catches up on
		// the next backfill run.
		h.logger.Warn("listing index update failed", map[string]interface{}{
			"listingId": input.ListingID,
			"error":     err.Error(),
		})
	}

	return &Output{
		ListingID:          input.ListingID,
		EmbeddingAvailable: true,
		Dimensions:         len(vector),
		GeneratedAt:        generatedAt,
	}, nil
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

	h.logger.Info("embedding job completed", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"listingId":          output.ListingID,
		"embeddingAvailable": output.EmbeddingAvailable,
	})
}

func errorCode(err error) string {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
