// internal/matching/strategy.go
package matching

import (
	"context"

	"wastematch/internal/common/logger"
	"wastematch/internal/common/metrics"
	"wastematch/internal/models"
)

// RankRequest carries everything a ranking strategy needs for one pass.
// Candidates are read-only for the duration of the call.
type RankRequest struct {
	Requirement models.Requirement
	Embedding   []float64
	Candidates  []models.Listing
	Limit       int
}

// Strategy is one way of producing ranked matches. Strategies are tried
// in an explicit ordered chain until one yields a non-empty, non-error
// result.
type Strategy interface {
	Name() string
	Rank(ctx context.Context, req RankRequest) ([]models.Match, error)
}

// Chain tries strategies in order. An error or empty result moves on to
// the next strategy; only the final strategy's empty result is returned
// to the caller as "no matches".
type Chain struct {
	strategies []Strategy
	logger     logger.Logger
}

func NewChain(log logger.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: log}
}

func (c *Chain) Rank(ctx context.Context, req RankRequest) ([]models.Match, error) {
	var lastErr error

	for i, s := range c.strategies {
		matches, err := s.Rank(ctx, req)
		if err != nil {
			lastErr = err
			metrics.RankingStrategyAttempts.WithLabelValues(s.Name(), "error").Inc()
			c.logger.Warn("ranking strategy failed, trying next", map[string]interface{}{
				"strategy": s.Name(),
				"error":    err.Error(),
			})
			continue
		}

		if len(matches) == 0 && i < len(c.strategies)-1 {
			metrics.RankingStrategyAttempts.WithLabelValues(s.Name(), "empty").Inc()
			c.logger.Debug("ranking strategy returned no matches, trying next", map[string]interface{}{
				"strategy": s.Name(),
			})
			continue
		}

		metrics.RankingStrategyAttempts.WithLabelValues(s.Name(), "ok").Inc()
		return matches, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return []models.Match{}, nil
}

// InMemoryStrategy runs the application-side cosine ranker. It is the
// terminal fallback and never errors.
type InMemoryStrategy struct {
	ranker *Ranker
}

func NewInMemoryStrategy(ranker *Ranker) *InMemoryStrategy {
	return &InMemoryStrategy{ranker: ranker}
}

func (s *InMemoryStrategy) Name() string { return "in-memory" }

func (s *InMemoryStrategy) Rank(_ context.Context, req RankRequest) ([]models.Match, error) {
	return s.ranker.Rank(req.Requirement, req.Embedding, req.Candidates), nil
}
