package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"polywatch/internal/domain"
)

// JournalStore implements domain.JournalStore using PostgreSQL. Writes are
// append-only; the tracker never reads the journal back.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

// RecordRollover appends one tracking transition.
func (s *JournalStore) RecordRollover(ctx context.Context, ev domain.RolloverEvent) error {
	const query = `
		INSERT INTO rollover_events (id, market_id, question, diff_minutes, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.pool.Exec(ctx, query, ev.ID, ev.MarketID, ev.Question, ev.DiffMinutes, ev.At)
	if err != nil {
		return fmt.Errorf("postgres: record rollover %s: %w", ev.MarketID, err)
	}
	return nil
}

// RecordSample appends one per-tick price observation.
func (s *JournalStore) RecordSample(ctx context.Context, sample domain.PriceSample) error {
	const query = `
		INSERT INTO price_samples (id, market_id, token, midpoint, spread, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.pool.Exec(ctx, query,
		sample.ID, sample.MarketID, sample.Token, sample.Midpoint, sample.Spread, sample.At)
	if err != nil {
		return fmt.Errorf("postgres: record sample %s: %w", sample.MarketID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.JournalStore = (*JournalStore)(nil)
