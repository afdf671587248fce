// SPDX-License-Identifier: Apache-2.0

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cchexcode/qop/pkg/migration"
)

func TestNewIDIsMonotonicallyIncreasing(t *testing.T) {
	a := migration.NewID()
	b := migration.NewID()
	assert.True(t, a == b || migration.Less(a, b), "expected %s <= %s", a, b)
}

func TestNormalizeStripsPrefix(t *testing.T) {
	assert.Equal(t, "123", migration.Normalize("id=123"))
	assert.Equal(t, "123", migration.Normalize("123"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := migration.Normalize("id=123")
	twice := migration.Normalize(once)
	assert.Equal(t, once, twice)
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "id=123", migration.DirName("123"))
	assert.Equal(t, "id=123", migration.DirName("id=123"))
}

func TestLessIsRawStringComparison(t *testing.T) {
	// Deliberately exercises the documented quirk: unequal digit widths
	// don't compare chronologically.
	assert.False(t, migration.Less("2", "10"))
	assert.True(t, migration.Less("1700000000000", "1700000000001"))
}

func TestMaxID(t *testing.T) {
	assert.Equal(t, "", migration.MaxID(nil))
	assert.Equal(t, "3", migration.MaxID([]string{"1", "3", "2"}))
	assert.Equal(t, "id=3", migration.MaxID([]string{"id=1", "id=3", "id=2"}))
}
