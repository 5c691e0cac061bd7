package history

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/ports"
)

var (
	_ ports.HistoryStore = (*MemoryStore)(nil)
	_ ports.HistoryStore = (*PostgresStore)(nil)
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func entry(user string, at time.Time, km, cost, risk, quality float64) domain.HistoryEntry {
	return domain.HistoryEntry{
		UserID:          user,
		StartLocation:   "Saddar",
		NumStops:        3,
		TotalDistanceKm: km,
		TotalTimeMin:    km * 2,
		PredictedCost:   cost,
		RiskScore:       risk,
		QualityScore:    quality,
		CreatedAt:       at,
	}
}

func seed(t *testing.T, s ports.HistoryStore, user string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, entry(user, base.Add(-10*24*time.Hour), 10, 1000, 2, 80)))
	require.NoError(t, s.Save(ctx, entry(user, base.Add(-2*24*time.Hour), 20, 2000, 4, 60)))
	require.NoError(t, s.Save(ctx, entry(user, base.Add(-1*time.Hour), 30, 3000, 6, 40)))
	require.NoError(t, s.Save(ctx, entry("someone-else", base, 99, 99, 9, 9)))
}

func assertStoreBehaviour(t *testing.T, s ports.HistoryStore, user string) {
	ctx := context.Background()
	seed(t, s, user)

	list, err := s.List(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 30.0, list[0].TotalDistanceKm)
	assert.Equal(t, 10.0, list[2].TotalDistanceKm)
	for _, e := range list {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, user, e.UserID)
	}

	limited, err := s.List(ctx, user, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	st, err := s.Stats(ctx, user, base.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalRoutes)
	assert.InDelta(t, 60, st.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 6000, st.TotalCost, 1e-9)
	assert.InDelta(t, 4, st.AvgRiskScore, 1e-9)
	assert.InDelta(t, 60, st.AvgQualityScore, 1e-9)
	require.Len(t, st.Recent, 2)
	assert.Equal(t, domain.DailyTotal{Date: "Mar 10", DistanceKm: 30, Cost: 3000}, st.Recent[0])
	assert.Equal(t, "Mar 08", st.Recent[1].Date)

	empty, err := s.Stats(ctx, "nobody-"+uuid.NewString(), base)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRoutes)
	assert.Empty(t, empty.Recent)
}

func TestMemoryStore(t *testing.T) {
	assertStoreBehaviour(t, NewMemoryStore(), "user-1")
}

func TestMemoryStore_RejectsAnonymous(t *testing.T) {
	assert.Error(t, NewMemoryStore().Save(context.Background(), domain.HistoryEntry{}))
}

func TestMemoryStore_FillsIDAndTimestamp(t *testing.T) {
	s := NewMemoryStore()
	s.now = func() time.Time { return base }

	require.NoError(t, s.Save(context.Background(), domain.HistoryEntry{UserID: "u"}))
	list, err := s.List(context.Background(), "u", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = uuid.Parse(list[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, base, list[0].CreatedAt)
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Save(context.Background(), entry("u", base.Add(time.Duration(i)*time.Minute), 1, 1, 1, 1)))
		}(i)
	}
	wg.Wait()

	st, err := s.Stats(context.Background(), "u", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 50, st.TotalRoutes)
}

// TestPostgresStore runs against a real database when TEST_POSTGRES_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	conn, err := db.Open(ctx, db.Config{Enabled: true, URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.InitSchema(ctx, conn))

	assertStoreBehaviour(t, NewPostgresStore(conn), "user-"+uuid.NewString())
}

func TestPostgresStore_NilDB(t *testing.T) {
	s := NewPostgresStore(nil)
	assert.Error(t, s.Save(context.Background(), entry("u", base, 1, 1, 1, 1)))
	_, err := s.List(context.Background(), "u", 1)
	assert.Error(t, err)
	_, err = s.Stats(context.Background(), "u", base)
	assert.Error(t, err)
}
