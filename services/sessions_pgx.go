package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cybercafe-demand-api/forecast"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSessionSource reads historical sessions straight from PostgreSQL for
// the batch retrainer.
type PgxSessionSource struct {
	pool *pgxpool.Pool
}

var _ forecast.SessionSource = (*PgxSessionSource)(nil)

func NewPgxSessionSource(pool *pgxpool.Pool) *PgxSessionSource {
	return &PgxSessionSource{pool: pool}
}

func (s *PgxSessionSource) FetchSessions(ctx context.Context, window forecast.TimeRange) ([]forecast.SessionRecord, error) {
	sql, args := sessionQuery(window)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %w", forecast.ErrDataUnavailable, err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (forecast.SessionRecord, error) {
		var r forecast.SessionRecord
		var end *time.Time
		if err := row.Scan(&r.ID, &r.StartTime, &end); err != nil {
			return r, err
		}
		r.EndTime = end
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan sessions: %w", forecast.ErrDataUnavailable, err)
	}
	return records, nil
}

func sessionQuery(window forecast.TimeRange) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT session_id::text, start_time, end_time
		FROM sessions
		WHERE start_time IS NOT NULL`)

	var args []any
	if !window.From.IsZero() {
		args = append(args, window.From)
		fmt.Fprintf(&b, " AND start_time >= $%d", len(args))
	}
	if !window.To.IsZero() {
		args = append(args, window.To)
		fmt.Fprintf(&b, " AND start_time < $%d", len(args))
	}
	b.WriteString(" ORDER BY start_time ASC")
	return b.String(), args
}
