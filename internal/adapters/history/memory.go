package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"delivery-route-optimizer/internal/domain"
)

// MemoryStore keeps history in process. It backs local runs without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.HistoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string][]domain.HistoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, entry domain.HistoryEntry) error {
	if entry.UserID == "" {
		return errors.New("history: user id is empty")
	}
	entry = prepare(entry, m.now)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.UserID] = append(m.entries[entry.UserID], entry)
	return nil
}

// newest returns a copy of a user's entries ordered newest first.
func (m *MemoryStore) newest(userID string) []domain.HistoryEntry {
	m.mu.RLock()
	out := append([]domain.HistoryEntry(nil), m.entries[userID]...)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) List(_ context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out := m.newest(userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context, userID string, since time.Time) (domain.DashboardStats, error) {
	st := domain.DashboardStats{Recent: []domain.DailyTotal{}}

	entries := m.newest(userID)
	var riskSum, qualitySum float64
	for _, e := range entries {
		st.TotalRoutes++
		st.TotalDistanceKm += e.TotalDistanceKm
		st.TotalCost += e.PredictedCost
		riskSum += e.RiskScore
		qualitySum += e.QualityScore

		if !e.CreatedAt.Before(since) {
			st.Recent = append(st.Recent, domain.DailyTotal{
				Date:       e.CreatedAt.UTC().Format(RecentDateLayout),
				DistanceKm: e.TotalDistanceKm,
				Cost:       e.PredictedCost,
			})
		}
	}
	if st.TotalRoutes > 0 {
		st.AvgRiskScore = riskSum / float64(st.TotalRoutes)
		st.AvgQualityScore = qualitySum / float64(st.TotalRoutes)
	}
	return st, nil
}
