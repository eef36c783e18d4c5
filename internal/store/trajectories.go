package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nova-lidar/nova/internal/geo"
)

// SavedTrajectory is a persisted trajectory. Points is only filled by
// GetTrajectory.
type SavedTrajectory struct {
	TrajectoryID string       `json:"trajectory_id"`
	Topic        string       `json:"topic"`
	Summary      geo.Summary  `json:"summary"`
	Points       []geo.Sample `json:"points,omitempty"`
	CreatedAt    int64        `json:"created_at"`
}

// SaveTrajectory stores the samples of traj and its summary in one
// transaction and returns the new trajectory ID.
func (s *Store) SaveTrajectory(ctx context.Context, topic string, traj *geo.Trajectory, summary geo.Summary) (string, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	id := uuid.New().String()
	samples := traj.Samples()
	createdAt := nowNanos()

	err = retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trajectories (
				trajectory_id, topic, total_points, cumulative_distance_m,
				area_sq_m, area_method, summary_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, topic, summary.TotalPoints, summary.CumulativeDistanceMeters,
			summary.ApproximateAreaSqMeters, string(summary.AreaMethod), string(summaryJSON), createdAt,
		); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trajectory_points (trajectory_id, seq, latitude, longitude, altitude)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, p := range samples {
			var alt interface{}
			if p.HasAltitude {
				alt = p.Altitude
			}
			if _, err := stmt.ExecContext(ctx, id, i, p.Latitude, p.Longitude, alt); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", fmt.Errorf("save trajectory: %w", err)
	}
	return id, nil
}

// GetTrajectory returns a trajectory with its points in order.
func (s *Store) GetTrajectory(ctx context.Context, id string) (*SavedTrajectory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT trajectory_id, topic, summary_json, created_at
		FROM trajectories
		WHERE trajectory_id = ?`, id)
	t, err := scanTrajectory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trajectory %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude, altitude
		FROM trajectory_points
		WHERE trajectory_id = ?
		ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query trajectory points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lat, lon float64
		var alt sql.NullFloat64
		if err := rows.Scan(&lat, &lon, &alt); err != nil {
			return nil, fmt.Errorf("scan trajectory point: %w", err)
		}
		p := geo.LatLon(lat, lon)
		if alt.Valid {
			p = p.WithAltitude(alt.Float64)
		}
		t.Points = append(t.Points, p)
	}
	return t, rows.Err()
}

// ListTrajectories returns up to limit trajectories, newest first, without
// their points. A limit <= 0 returns all of them.
func (s *Store) ListTrajectories(ctx context.Context, limit int) ([]*SavedTrajectory, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT trajectory_id, topic, summary_json, created_at
		FROM trajectories
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trajectories: %w", err)
	}
	defer rows.Close()

	var out []*SavedTrajectory
	for rows.Next() {
		t, err := scanTrajectory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrajectory(row scanner) (*SavedTrajectory, error) {
	var t SavedTrajectory
	var summaryJSON string
	if err := row.Scan(&t.TrajectoryID, &t.Topic, &summaryJSON, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summaryJSON), &t.Summary); err != nil {
		return nil, fmt.Errorf("decode summary of %s: %w", t.TrajectoryID, err)
	}
	return &t, nil
}
