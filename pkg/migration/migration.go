// SPDX-License-Identifier: Apache-2.0

// Package migration owns the local filesystem store: discovery, creation,
// and reading of the up/down SQL pair and metadata that make up one
// migration.
package migration

import "sort"

// Meta is the structured record alongside a migration's SQL pair.
// Both fields are optional; absence is expressed with a nil pointer so a
// missing meta.toml (or a meta.toml predating one of these fields)
// decodes to the same zero value as "not set".
type Meta struct {
	Comment *string `toml:"comment,omitempty"`
	Locked  *bool   `toml:"locked,omitempty"`
}

// CommentOr returns the comment, or def if unset.
func (m Meta) CommentOr(def string) string {
	if m.Comment == nil {
		return def
	}
	return *m.Comment
}

// IsLocked reports whether the migration is locked. Absent means false.
func (m Meta) IsLocked() bool {
	return m.Locked != nil && *m.Locked
}

// Migration is one local migration: its ID, the forward and reverse SQL
// scripts, and its metadata.
type Migration struct {
	ID   string
	Up   string
	Down string
	Meta Meta
}

// SortIDs sorts ids ascending using the engine's string-comparison order
// (see Less).
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return Less(ids[i], ids[j]) })
}

// SortedKeys returns the keys of an ID set in ascending order.
func SortedKeys(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}
