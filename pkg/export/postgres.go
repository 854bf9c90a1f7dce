package export

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the sink can self-bootstrap its table.
//
//go:embed schema.sql
var schemaSQL string

// PostgresSink persists one row per export tick to Postgres.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a connection pool and fails fast if the database
// is unreachable.
func NewPostgresSink(dbURL string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("export: connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("export: ping postgres: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Write implements Sink.
func (p *PostgresSink) Write(ctx context.Context, s Stats) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO foot_traffic(stream_id, location, people_count, avg_dwell_time, highest_dwell_time, ts)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, s.StreamID, s.Location, s.PeopleCount, s.AvgDwellSeconds, s.PeakDwellSeconds, s.Timestamp)
	if err != nil {
		return fmt.Errorf("export: insert stats: %w", err)
	}
	return nil
}

// Recent returns the most recent records for a location, newest first.
func (p *PostgresSink) Recent(ctx context.Context, location string, limit int) ([]Stats, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT stream_id, location, people_count, avg_dwell_time, highest_dwell_time, ts
		FROM foot_traffic
		WHERE location = $1
		ORDER BY ts DESC
		LIMIT $2
	`, location, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.StreamID, &s.Location, &s.PeopleCount,
			&s.AvgDwellSeconds, &s.PeakDwellSeconds, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Date = s.Timestamp.Format("01/02/2006")
		s.Day = s.Timestamp.Format("Monday")
		s.Time = s.Timestamp.Format("15:04:05")
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close shuts down the connection pool.
func (p *PostgresSink) Close() {
	p.pool.Close()
}
