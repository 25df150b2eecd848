package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// PostgresDao implements ProfileRepository over a portal.session_blob table,
// for deployments that keep session profiles server-side instead of in
// browser storage.
//
// Expected schema:
//
//	CREATE TABLE portal.session_blob (
//	    storage_key TEXT PRIMARY KEY,
//	    payload     BYTEA NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

func (dao *PostgresDao) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := dao.DB.QueryRowContext(ctx, `
		SELECT payload FROM portal.session_blob WHERE storage_key = $1
	`, key).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "PostgresDao.Get",
			"key":       key,
		}).WithError(err).Error("Failed to read session blob")
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return payload, nil
}

func (dao *PostgresDao) Put(ctx context.Context, key string, value []byte) error {
	_, err := dao.DB.ExecContext(ctx, `
		INSERT INTO portal.session_blob (storage_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (storage_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`, key, value)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "PostgresDao.Put",
			"key":       key,
		}).WithError(err).Error("Failed to write session blob")
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (dao *PostgresDao) Delete(ctx context.Context, key string) error {
	_, err := dao.DB.ExecContext(ctx, `
		DELETE FROM portal.session_blob WHERE storage_key = $1
	`, key)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "PostgresDao.Delete",
			"key":       key,
		}).WithError(err).Error("Failed to delete session blob")
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
