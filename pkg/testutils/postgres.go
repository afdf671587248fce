// SPDX-License-Identifier: Apache-2.0

// Package testutils starts a shared Postgres test container for
// integration tests across this module and hands out scratch database
// connection strings to individual tests.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultPostgresVersion = "16.4"

var tConnStr string

// SharedPostgresTestMain starts one Postgres container for every test in
// the calling package. Each test then creates its own scratch database
// inside it via WithPostgresDB.
func SharedPostgresTestMain(m *testing.M) {
	ctx := context.Background()

	waitFor := wait.ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(30 * time.Second)

	version := os.Getenv("POSTGRES_VERSION")
	if version == "" {
		version = defaultPostgresVersion
	}

	ctr, err := tcpostgres.Run(ctx, "postgres:"+version,
		testcontainers.WithWaitStrategy(waitFor))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start postgres container:", err)
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read postgres connection string:", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to terminate postgres container:", err)
	}
	os.Exit(code)
}

// WithPostgresDB creates a fresh scratch database in the shared
// container, passes its connection string to fn, and leaves cleanup to
// the container's own teardown (databases are cheap and the container is
// ephemeral).
func WithPostgresDB(t *testing.T, fn func(connStr string)) {
	t.Helper()
	ctx := context.Background()

	admin, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	defer admin.Close()

	name := randomDBName()
	if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(name))); err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + name

	fn(u.String())
}

func randomDBName() string {
	const charset = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 12)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return "qoptest_" + string(b)
}
