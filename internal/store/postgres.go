package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a pgx-backed Store using a single kv_records table
// (see migrations/). Meant for deployments that already run PostgreSQL;
// the offline default is the bbolt backend.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) GetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, value FROM kv_records WHERE collection = $1`, collection)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, unavailable(err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM kv_records WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, collection, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO kv_records (collection, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (collection, key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = NOW()`,
		collection, key, value,
	)
	return unavailable(err)
}

func (p *Postgres) Delete(ctx context.Context, collection, key string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM kv_records WHERE collection = $1 AND key = $2`, collection, key)
	return unavailable(err)
}

func (p *Postgres) Clear(ctx context.Context, collection string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM kv_records WHERE collection = $1`, collection)
	return unavailable(err)
}
