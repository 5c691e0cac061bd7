// Package history stores summaries of completed optimizations.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// RecentDateLayout formats DailyTotal.Date.
const RecentDateLayout = "Jan 02"

// PostgresStore keeps history in the route_history table.
type PostgresStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, now: time.Now}
}

// prepare fills the id and timestamp of a new entry.
func prepare(e domain.HistoryEntry, now func() time.Time) domain.HistoryEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now().UTC()
	}
	return e
}

func (s *PostgresStore) Save(ctx context.Context, entry domain.HistoryEntry) (err error) {
	defer obs.Time(ctx, "history.postgres.Save")(&err)

	if s.DB == nil {
		return errors.New("history: db is nil")
	}
	if entry.UserID == "" {
		return errors.New("history: user id is empty")
	}
	entry = prepare(entry, s.now)

	q := `
	INSERT INTO route_history (
		id, user_id, start_location, num_stops, total_distance_km,
		total_time_min, predicted_cost, risk_score, quality_score, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = s.DB.ExecContext(ctx, q,
		entry.ID, entry.UserID, entry.StartLocation, entry.NumStops, entry.TotalDistanceKm,
		entry.TotalTimeMin, entry.PredictedCost, entry.RiskScore, entry.QualityScore, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("history: insert route_history: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string, limit int) (_ []domain.HistoryEntry, err error) {
	defer obs.Time(ctx, "history.postgres.List")(&err)

	if s.DB == nil {
		return nil, errors.New("history: db is nil")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := `
	SELECT id, user_id, start_location, num_stops, total_distance_km,
		total_time_min, predicted_cost, risk_score, quality_score, created_at
	FROM route_history
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2;
	`
	rows, err := s.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query route_history: %w", err)
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.StartLocation, &e.NumStops, &e.TotalDistanceKm,
			&e.TotalTimeMin, &e.PredictedCost, &e.RiskScore, &e.QualityScore, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan rows: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: row iteration: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Stats(ctx context.Context, userID string, since time.Time) (_ domain.DashboardStats, err error) {
	defer obs.Time(ctx, "history.postgres.Stats")(&err)

	var st domain.DashboardStats
	if s.DB == nil {
		return st, errors.New("history: db is nil")
	}

	agg := `
	SELECT COUNT(*),
		COALESCE(SUM(total_distance_km), 0),
		COALESCE(SUM(predicted_cost), 0),
		COALESCE(AVG(risk_score), 0),
		COALESCE(AVG(quality_score), 0)
	FROM route_history
	WHERE user_id = $1;
	`
	if err := s.DB.QueryRowContext(ctx, agg, userID).Scan(
		&st.TotalRoutes, &st.TotalDistanceKm, &st.TotalCost, &st.AvgRiskScore, &st.AvgQualityScore,
	); err != nil {
		return st, fmt.Errorf("history: aggregate route_history: %w", err)
	}

	recent := `
	SELECT created_at, total_distance_km, predicted_cost
	FROM route_history
	WHERE user_id = $1 AND created_at >= $2
	ORDER BY created_at DESC;
	`
	rows, err := s.DB.QueryContext(ctx, recent, userID, since)
	if err != nil {
		return st, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	st.Recent = []domain.DailyTotal{}
	for rows.Next() {
		var (
			at        time.Time
			dist, cst float64
		)
		if err := rows.Scan(&at, &dist, &cst); err != nil {
			return st, fmt.Errorf("history: scan recent: %w", err)
		}
		st.Recent = append(st.Recent, domain.DailyTotal{Date: at.UTC().Format(RecentDateLayout), DistanceKm: dist, Cost: cst})
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("history: recent iteration: %w", err)
	}
	return st, nil
}
