// Package inmem provides map-backed repositories for development and tests;
// they mirror the database package's behavior without a running postgres.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

type historyRepository struct {
	mu        sync.RWMutex
	summaries map[string]study.Summary
}

var _ study.HistoryRepository = (*historyRepository)(nil)

func NewHistoryRepository() *historyRepository {
	return &historyRepository{summaries: make(map[string]study.Summary)}
}

func (repo *historyRepository) SaveSummary(_ context.Context, sum study.Summary) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.summaries[sum.SessionID]; !ok {
		repo.summaries[sum.SessionID] = sum
	}
	return nil
}

func (repo *historyRepository) GetSummary(_ context.Context, sessionID string) (study.Summary, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	sum, ok := repo.summaries[sessionID]
	if !ok {
		return study.Summary{}, study.ErrSessionNotFound
	}
	return sum, nil
}

func (repo *historyRepository) QuerySummaries(_ context.Context, userID string, kind catalog.Kind) ([]study.Summary, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	sums := make([]study.Summary, 0)
	for _, sum := range repo.summaries {
		if sum.UserID == userID && sum.Kind == kind {
			sums = append(sums, sum)
		}
	}
	sort.Slice(sums, func(i, j int) bool { return sums[i].SessionDate.After(sums[j].SessionDate) })
	return sums, nil
}

func (repo *historyRepository) DeleteSummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var n int64
	for id, sum := range repo.summaries {
		if sum.SessionDate.Before(cutoff) {
			delete(repo.summaries, id)
			n++
		}
	}
	return n, nil
}
