package sqlite

import (
	"context"
	"strings"
	"time"
)

type keysRepo struct {
	q querier
}

func (r *keysRepo) Put(ctx context.Context, name string, value []byte) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO session_keys (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC(),
	)
	return err
}

func (r *keysRepo) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := r.q.QueryRowContext(ctx, `SELECT value FROM session_keys WHERE name = ?`, name).Scan(&value)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return value, nil
}

func (r *keysRepo) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	_, err := r.q.ExecContext(ctx, `DELETE FROM session_keys WHERE name IN (`+placeholders+`)`, args...)
	return err
}
