// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"time"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/present"
)

// List merges the local store with the remote ledger keyed by ID and
// renders the result. For applied entries, the lock
// authority is the ledger; for not-applied entries it is the local
// meta.toml.
func (s *Service) List(ctx context.Context, format present.Format) error {
	local, err := s.Store.ListLocal()
	if err != nil {
		return err
	}
	history, err := s.Repo.History(ctx)
	if err != nil {
		return err
	}

	remoteByID := make(map[string]struct {
		at      string
		comment string
		locked  bool
	}, len(history))
	for _, h := range history {
		remoteByID[h.ID] = struct {
			at      string
			comment string
			locked  bool
		}{h.AppliedAt, h.Comment, h.Locked}
	}

	ids := make(map[string]struct{}, len(local)+len(history))
	for id := range local {
		ids[id] = struct{}{}
	}
	for _, h := range history {
		ids[h.ID] = struct{}{}
	}

	sorted := migration.SortedKeys(ids)

	entries := make([]present.Entry, 0, len(sorted))
	for _, id := range sorted {
		e := present.Entry{ID: id, Local: isLocal(local, id)}

		if r, ok := remoteByID[id]; ok {
			if t, err := time.Parse(time.RFC3339, r.at); err == nil {
				e.Remote = &t
			}
			e.Comment = r.comment
			e.Locked = r.locked
		} else if e.Local {
			m, err := s.Store.Read(id)
			if err == nil {
				e.Comment = m.Meta.CommentOr("")
				e.Locked = m.Meta.IsLocked()
			}
		}

		entries = append(entries, e)
	}

	return present.List(s.Out, entries, format)
}

func isLocal(local map[string]struct{}, id string) bool {
	_, ok := local[id]
	return ok
}
