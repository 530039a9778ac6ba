// internal/workers/logistics/nearby-search/handler.go
package nearbysearch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/common/metrics"
	"wastematch/internal/logistics"
)

const TaskType = "nearby-search"

// LogisticsClient is satisfied by logistics.Client.
type LogisticsClient interface {
	NearbySearch(ctx context.Context, keywords string, lat, lng float64) ([]logistics.Place, error)
}

type Handler struct {
	config       *Config
	client       LogisticsClient
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, client LogisticsClient, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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

// Execute finds facilities around the pickup point for deal planning.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Latitude == 0 && input.Longitude == 0 {
		return nil, apperrors.NewValidationFailedError("latitude and longitude are required")
	}

	keywords := input.Keywords
	if keywords == "" {
		keywords = h.config.DefaultKeywords
	}

	places, err := h.client.NearbySearch(ctx, keywords, input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []logistics.Place{}
	}

	return &Output{
		Facilities: places,
		Count:      len(places),
		SearchedAt: time.Now().UTC().Format(time.RFC3339),
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

	h.logger.Info("nearby search completed", map[string]interface{}{
		"jobKey": job.GetKey(),
		"count":  output.Count,
	})
}

func errorCode(err error) string {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
