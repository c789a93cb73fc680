package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"claim-verifier/api/internal/verify"
)

// DB is the subset of pgxpool.Pool used here.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
create table if not exists verdict_cache (
  cache_key   text primary key,
  model       text not null,
  label       text not null,
  confidence  double precision not null,
  result_json jsonb not null,
  created_at  timestamptz not null default now()
);
create index if not exists verdict_cache_created_at_idx on verdict_cache (created_at)`

type VerdictRepo struct{ DB DB }

func NewVerdictRepo(db DB) *VerdictRepo { return &VerdictRepo{DB: db} }

func (r *VerdictRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure verdict_cache schema: %w", err)
	}
	return nil
}

// Find returns the cached verdict for key. Missing, stale (maxAge > 0) and unreadable
// rows all come back as verify.ErrCacheMiss so the caller asks the model again.
func (r *VerdictRepo) Find(ctx context.Context, key string, maxAge time.Duration) (verify.Result, error) {
	const q = `select result_json, created_at from verdict_cache where cache_key = $1`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRow(ctx, q, key).Scan(&js, &ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return verify.Result{}, verify.ErrCacheMiss
		}
		return verify.Result{}, fmt.Errorf("find verdict: %w", err)
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return verify.Result{}, verify.ErrCacheMiss
	}
	var res verify.Result
	if err := json.Unmarshal(js, &res); err != nil {
		return verify.Result{}, verify.ErrCacheMiss
	}
	return res, nil
}

// Upsert stores res under key, refreshing created_at on conflict.
func (r *VerdictRepo) Upsert(ctx context.Context, key, model string, res verify.Result) error {
	js, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	const q = `
insert into verdict_cache (cache_key, model, label, confidence, result_json)
values ($1, $2, $3, $4, $5)
on conflict (cache_key) do update
set model = excluded.model,
    label = excluded.label,
    confidence = excluded.confidence,
    result_json = excluded.result_json,
    created_at = now()`
	if _, err := r.DB.Exec(ctx, q, key, model, string(res.Label()), res.Confidence(), js); err != nil {
		return fmt.Errorf("upsert verdict: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes cache rows older than olderThan and reports how many went.
func (r *VerdictRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from verdict_cache where created_at < $1`
	tag, err := r.DB.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge verdicts: %w", err)
	}
	return tag.RowsAffected(), nil
}
