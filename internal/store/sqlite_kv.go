package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqliteKV stores every tier in the kv table. The quota check and the
// upsert share a transaction so a rejected write leaves nothing behind.
type sqliteKV struct {
	db *sql.DB
}

func (s *sqliteKV) Get(ctx context.Context, tier Tier, key string) ([]byte, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE tier = ? AND key = ?`, string(tier), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", tier, key, err)
	}
	return value, nil
}

func (s *sqliteKV) Set(ctx context.Context, tier Tier, key string, value []byte) error {
	if err := checkTier(tier); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var used int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0) FROM kv WHERE tier = ? AND key <> ?`,
		string(tier), key,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("measure %s: %w", tier, err)
	}
	if used+int64(len(key)+len(value)) > tier.Quota() {
		return fmt.Errorf("set %s/%s: %w", tier, key, ErrQuotaExceeded)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv (tier, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (tier, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(tier), key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", tier, key, err)
	}
	return tx.Commit()
}

func (s *sqliteKV) Remove(ctx context.Context, tier Tier, key string) error {
	if err := checkTier(tier); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE tier = ? AND key = ?`, string(tier), key); err != nil {
		return fmt.Errorf("remove %s/%s: %w", tier, key, err)
	}
	return nil
}

func (s *sqliteKV) Clear(ctx context.Context, tier Tier) error {
	if err := checkTier(tier); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE tier = ?`, string(tier)); err != nil {
		return fmt.Errorf("clear %s: %w", tier, err)
	}
	return nil
}
