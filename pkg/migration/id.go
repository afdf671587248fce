// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"strconv"
	"strings"
	"time"
)

// idPrefix is the folder-name prefix that disambiguates a migration
// directory from any other entry in the store root.
const idPrefix = "id="

// NewID mints a fresh migration ID: the current UTC time in
// milliseconds, formatted as a decimal string.
func NewID() string {
	return strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
}

// Normalize strips a leading "id=" prefix if present. It is idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(id string) string {
	return strings.TrimPrefix(id, idPrefix)
}

// DirName returns the on-disk folder name for a (already normalized) ID.
func DirName(id string) string {
	return idPrefix + Normalize(id)
}

// Less compares two IDs the way the store and ledger do throughout this
// engine: as raw decimal strings, not as parsed integers. This matches
// chronological order only while all IDs share the same digit width; see
// the "ID comparison" note in SPEC_FULL.md.
func Less(a, b string) bool {
	return Normalize(a) < Normalize(b)
}

// MaxID returns the lexicographically greatest ID in ids, or "" if ids is
// empty.
func MaxID(ids []string) string {
	max := ""
	for _, id := range ids {
		if max == "" || Less(max, id) {
			max = id
		}
	}
	return max
}
