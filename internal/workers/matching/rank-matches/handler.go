// internal/workers/matching/rank-matches/handler.go
package rankmatches

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
	"wastematch/internal/matching"
	"wastematch/internal/models"
)

const TaskType = "rank-matches"

type Embedder interface {
	EmbedText(ctx context.Context, text string) []float64
}

type RequirementStore interface {
	GetByID(ctx context.Context, id, userID string) (*models.Requirement, error)
	MarkMatched(ctx context.Context, id string) error
}

type ListingStore interface {
	GetActive(ctx context.Context) ([]models.Listing, error)
}

type FormulaStore interface {
	GetAll(ctx context.Context) (map[string]models.Formula, error)
}

// Ranker is satisfied by matching.Chain; the handler does not care
// which strategy produced the result.
type Ranker interface {
	Rank(ctx context.Context, req matching.RankRequest) ([]models.Match, error)
}

type Handler struct {
	config       *Config
	requirements RequirementStore
	listings     ListingStore
	formulas     FormulaStore
	embedder     Embedder
	ranker       Ranker
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, requirements RequirementStore, listings ListingStore, formulas FormulaStore, embedder Embedder, ranker Ranker, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		requirements: requirements,
		listings:     listings,
		formulas:     formulas,
		embedder:     embedder,
		ranker:       ranker,
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

	return &Input{
		RequirementID: variables["requirementId"].(string),
		UserID:        variables["userId"].(string),
	}, nil
}

// Execute ranks active listings against one requirement. An empty
// match list is a valid outcome, not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	requirement, err := h.requirements.GetByID(ctx, input.RequirementID, input.UserID)
	if err != nil {
		return nil, err
	}

	candidates, err := h.listings.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	embedding := h.embedder.EmbedText(ctx, requirement.EmbeddingText())

	matches, err := h.ranker.Rank(ctx, matching.RankRequest{
		Requirement: *requirement,
		Embedding:   embedding,
		Candidates:  candidates,
		Limit:       h.config.MaxResults,
	})
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.Match{}
	}

	h.annotateEmissions(ctx, matches)

	if len(matches) > 0 {
		if err := h.requirements.MarkMatched(ctx, input.RequirementID); err != nil {
			// Matches are already computed; a stale flag is corrected
			// on the next ranking run.
			h.logger.Warn("failed to mark requirement matched", map[string]interface{}{
				"requirementId": input.RequirementID,
				"error":         err.Error(),
			})
		}
	}

	return &Output{
		RequirementID: input.RequirementID,
		Matches:       matches,
		MatchCount:    len(matches),
		RankedAt:      time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) annotateEmissions(ctx context.Context, matches []models.Match) {
	if len(matches) == 0 {
		return
	}
	formulas, err := h.formulas.GetAll(ctx)
	if err != nil {
		h.logger.Warn("emission formulas unavailable, matches returned without savings", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	matching.AnnotateCO2Savings(matches, formulas, 0)
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

	h.logger.Info("ranking job completed", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"requirementId": output.RequirementID,
		"matchCount":    output.MatchCount,
	})
}

func errorCode(err error) string {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
