// SPDX-License-Identifier: Apache-2.0

// Package retry runs a transaction and retries it on a backend-supplied
// "is this a lock-contention error" predicate. Both the Postgres and
// SQLite repository adapters use it to retry the single transaction
// that frames a migration's user SQL and ledger write when the backend
// reports its lock/busy-timeout was exceeded.
package retry

import (
	"context"
	"database/sql"
	"time"

	"github.com/cloudflare/backoff"
)

const (
	maxBackoffDuration = 1 * time.Minute
	backoffInterval    = 1 * time.Second
)

// IsRetryable classifies an error returned from a transaction attempt as
// a lock-contention error worth retrying.
type IsRetryable func(err error) bool

// WithRetryableTx runs f inside a transaction opened on db, retrying the
// whole attempt (fresh BEGIN included) when f's error satisfies
// retryable. The transaction is committed when f succeeds, rolled back
// otherwise.
func WithRetryableTx(ctx context.Context, db *sql.DB, retryable IsRetryable, f func(context.Context, *sql.Tx) error) error {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		err = f(ctx, tx)
		if err == nil {
			return tx.Commit()
		}

		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}

		if retryable(err) {
			if sleepErr := sleepCtx(ctx, b.Duration()); sleepErr != nil {
				return sleepErr
			}
			continue
		}

		return err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
