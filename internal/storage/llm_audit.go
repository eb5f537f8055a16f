package storage

import (
	"context"
	"fmt"
	"time"
)

// CallRecord is one provider call made while answering a query. Prompts and
// answers are not stored.
type CallRecord struct {
	Operation string    `json:"operation"`
	CorpusID  string    `json:"corpusId"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	ErrorType string    `json:"errorType,omitempty"`
	LatencyMS int64     `json:"latencyMs"`
	At        time.Time `json:"at"`
}

// CallAuditor is implemented by registry backends that keep an llm call log.
type CallAuditor interface {
	RecordCall(ctx context.Context, rec CallRecord) error
	RecentCalls(ctx context.Context, limit int) ([]CallRecord, error)
}

var (
	_ CallAuditor = (*SQLiteRegistry)(nil)
	_ CallAuditor = (*PostgresRegistry)(nil)
)

func (r *SQLiteRegistry) RecordCall(ctx context.Context, rec CallRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO llm_calls (operation, corpus_id, provider_name, model, status, error_type, latency_ms, called_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Operation, rec.CorpusID, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS,
		rec.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

func (r *SQLiteRegistry) RecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT operation, corpus_id, provider_name, model, status, error_type, latency_ms, called_at
FROM llm_calls ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list llm calls: %w", err)
	}
	defer rows.Close()

	out := make([]CallRecord, 0, limit)
	for rows.Next() {
		var (
			rec CallRecord
			at  string
		)
		if err := rows.Scan(&rec.Operation, &rec.CorpusID, &rec.Provider, &rec.Model, &rec.Status, &rec.ErrorType, &rec.LatencyMS, &at); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		if rec.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse called_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRegistry) RecordCall(ctx context.Context, rec CallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO ragbot_llm_calls (operation, corpus_id, provider_name, model, status, error_type, latency_ms, called_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8)`,
		rec.Operation, rec.CorpusID, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS, rec.At)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) RecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT operation, corpus_id, provider_name, model, status, COALESCE(error_type, ''), latency_ms, called_at
FROM ragbot_llm_calls ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list llm calls: %w", err)
	}
	defer rows.Close()

	out := make([]CallRecord, 0, limit)
	for rows.Next() {
		var rec CallRecord
		if err := rows.Scan(&rec.Operation, &rec.CorpusID, &rec.Provider, &rec.Model, &rec.Status, &rec.ErrorType, &rec.LatencyMS, &rec.At); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
