// SPDX-License-Identifier: Apache-2.0

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/repository/postgres"
	"github.com/cchexcode/qop/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.SharedPostgresTestMain(m)
}

func withRepo(t *testing.T, fn func(repo *postgres.Repository)) {
	t.Helper()
	testutils.WithPostgresDB(t, func(connStr string) {
		repo, err := postgres.New(postgres.Config{
			DSN:             connStr,
			Schema:          "qop",
			MigrationsTable: "migrations",
			LogTable:        "log",
			ToolVersion:     "1.0.0",
		})
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		require.NoError(t, repo.InitStore(context.Background()))

		fn(repo)
	})
}

func TestPostgresApplyAndRevert(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "first", "", 0, false, false))

		applied, err := repo.AppliedIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"1": {}}, applied)

		down, err := repo.DownSQL(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "DROP TABLE t;", down)

		require.NoError(t, repo.Revert(ctx, "1", down, 0, false, false))

		applied, err = repo.AppliedIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestPostgresApplyDryRunDoesNotCommit(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "", "", 0, true, false))

		applied, err := repo.AppliedIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestPostgresRevertLockedRequiresUnlock(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "", "", 0, false, true))

		err := repo.Revert(ctx, "1", "DROP TABLE t;", 0, false, false)
		require.Error(t, err)
		assert.True(t, qoperr.Is(err, qoperr.LockedMigration))

		require.NoError(t, repo.Revert(ctx, "1", "DROP TABLE t;", 0, false, true))
	})
}

func TestPostgresApplyFailureLeavesLedgerUnchanged(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		err := repo.Apply(ctx, "1", "SELECT 1/0;", "DROP TABLE t;", "", "", 0, false, false)
		require.Error(t, err)
		assert.True(t, qoperr.Is(err, qoperr.DBError))

		applied, err := repo.AppliedIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, applied, "a failing up.sql must leave the ledger row uncommitted along with the user SQL")
	})
}

func TestPostgresRevertFailureLeavesLedgerUnchanged(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "", "", 0, false, false))

		err := repo.Revert(ctx, "1", "SELECT 1/0;", 0, false, false)
		require.Error(t, err)
		assert.True(t, qoperr.Is(err, qoperr.DBError))

		applied, err := repo.AppliedIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"1": {}}, applied, "a failing down.sql must leave the ledger row in place along with the user SQL")
	})
}

func TestPostgresHistoryOrderedAscending(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		require.NoError(t, repo.Apply(ctx, "2", "CREATE TABLE b (id int);", "DROP TABLE b;", "second", "1", 0, false, false))
		require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE a (id int);", "DROP TABLE a;", "first", "", 0, false, false))

		history, err := repo.History(ctx)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "1", history[0].ID)
		assert.Equal(t, "2", history[1].ID)
	})
}

func TestPostgresLastVersion(t *testing.T) {
	t.Parallel()
	withRepo(t, func(repo *postgres.Repository) {
		ctx := context.Background()

		v, err := repo.LastVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", v)

		require.NoError(t, repo.Apply(ctx, "1", "SELECT 1;", "SELECT 1;", "", "", 0, false, false))

		v, err = repo.LastVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", v)
	})
}
