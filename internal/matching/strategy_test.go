// internal/matching/strategy_test.go
package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastematch/internal/common/logger"
	"wastematch/internal/models"
)

type stubStrategy struct {
	name    string
	matches []models.Match
	err     error
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Rank(_ context.Context, _ RankRequest) ([]models.Match, error) {
	s.calls++
	return s.matches, s.err
}

func TestChainFirstStrategyWins(t *testing.T) {
	first := &stubStrategy{name: "first", matches: []models.Match{{ListingID: "a", MatchPercentage: 90}}}
	second := &stubStrategy{name: "second", matches: []models.Match{{ListingID: "b", MatchPercentage: 50}}}
	chain := NewChain(logger.NewNoOpLogger(), first, second)

	matches, err := chain.Rank(context.Background(), RankRequest{})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ListingID)
	assert.Zero(t, second.calls, "second strategy must not run when the first succeeds")
}

func TestChainFallsBackOnError(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("index missing")}
	second := &stubStrategy{name: "second", matches: []models.Match{{ListingID: "b", MatchPercentage: 70}}}
	chain := NewChain(logger.NewNoOpLogger(), first, second)

	matches, err := chain.Rank(context.Background(), RankRequest{})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ListingID)
}

func TestChainFallsBackOnEmpty(t *testing.T) {
	first := &stubStrategy{name: "first", matches: []models.Match{}}
	second := &stubStrategy{name: "second", matches: []models.Match{{ListingID: "b", MatchPercentage: 70}}}
	chain := NewChain(logger.NewNoOpLogger(), first, second)

	matches, err := chain.Rank(context.Background(), RankRequest{})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChainEmptyFinalResultIsNotAnError(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("search failed")}
	second := &stubStrategy{name: "second", matches: []models.Match{}}
	chain := NewChain(logger.NewNoOpLogger(), first, second)

	matches, err := chain.Rank(context.Background(), RankRequest{})

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChainAllStrategiesErroring(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("search failed")}
	second := &stubStrategy{name: "second", err: errors.New("still failing")}
	chain := NewChain(logger.NewNoOpLogger(), first, second)

	_, err := chain.Rank(context.Background(), RankRequest{})

	assert.Error(t, err)
}
