// SPDX-License-Identifier: Apache-2.0

package retry_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchexcode/qop/pkg/repository/retry"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.ExecContext(context.Background(), "CREATE TABLE t (id int)")
	require.NoError(t, err)
	return db
}

func alwaysRetryable(error) bool { return true }
func neverRetryable(error) bool  { return false }

func TestWithRetryableTxCommitsOnSuccess(t *testing.T) {
	db := openMemDB(t)

	err := retry.WithRetryableTx(context.Background(), db, neverRetryable, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t (id) VALUES (1)")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithRetryableTxRollsBackOnNonRetryableError(t *testing.T) {
	db := openMemDB(t)
	boom := errors.New("boom")

	err := retry.WithRetryableTx(context.Background(), db, neverRetryable, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t (id) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM t").Scan(&count))
	assert.Equal(t, 0, count, "rolled-back insert must not be visible")
}

func TestWithRetryableTxRetriesUntilSuccess(t *testing.T) {
	db := openMemDB(t)

	attempts := 0
	err := retry.WithRetryableTx(context.Background(), db, alwaysRetryable, func(ctx context.Context, tx *sql.Tx) error {
		attempts++
		if attempts < 3 {
			return errors.New("lock not available")
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO t (id) VALUES (1)")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryableTxRespectsContextCancellation(t *testing.T) {
	db := openMemDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.WithRetryableTx(ctx, db, alwaysRetryable, func(ctx context.Context, tx *sql.Tx) error {
		return errors.New("always retryable")
	})
	require.Error(t, err)
}
