// SPDX-License-Identifier: Apache-2.0

package present

import (
	"encoding/json"
	"io"
	"time"

	"github.com/oapi-codegen/nullable"
	"github.com/pterm/pterm"
)

// Format selects how List renders its entries.
type Format string

const (
	Human Format = "human"
	JSON  Format = "json"
)

// Entry is one row of the merged local/remote migration view.
type Entry struct {
	ID      string
	Remote  *time.Time // nil if not applied
	Local   bool
	Comment string
	Locked  bool
}

// jsonEntry is the wire shape for Format == JSON. Remote is the one
// field in this domain that is genuinely optional JSON data (every other
// optional value flows through a TOML file, where *T already expresses
// absence) — it uses nullable.Nullable so it serializes as an RFC3339
// string or JSON null rather than an empty string standing in for
// "not applied".
type jsonEntry struct {
	ID      string                     `json:"id"`
	Remote  nullable.Nullable[string]  `json:"remote"`
	Local   bool                       `json:"local"`
	Comment *string                    `json:"comment,omitempty"`
	Locked  bool                       `json:"locked"`
}

// List renders entries (already sorted ascending by ID) in the
// requested format.
func List(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case JSON:
		return listJSON(w, entries)
	default:
		listTable(w, entries)
		return nil
	}
}

func listJSON(w io.Writer, entries []Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		je := jsonEntry{ID: e.ID, Local: e.Local, Locked: e.Locked}
		if e.Remote != nil {
			je.Remote = nullable.NewNullableWithValue(e.Remote.UTC().Format(time.RFC3339))
		} else {
			je.Remote = nullable.NewNullNullable[string]()
		}
		if e.Comment != "" {
			c := e.Comment
			je.Comment = &c
		}
		out = append(out, je)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func listTable(w io.Writer, entries []Entry) {
	rows := pterm.TableData{{"ID", "APPLIED", "LOCAL", "LOCKED", "COMMENT"}}
	for _, e := range entries {
		applied := "-"
		if e.Remote != nil {
			applied = e.Remote.Local().Format(time.RFC3339)
		}
		local := "no"
		if e.Local {
			local = "yes"
		}
		locked := "no"
		if e.Locked {
			locked = "yes"
		}
		rows = append(rows, []string{e.ID, applied, local, locked, e.Comment})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(w).Render()
}
