// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cchexcode/qop/pkg/qoperr"
)

const (
	upFileName   = "up.sql"
	downFileName = "down.sql"
	metaFileName = "meta.toml"

	placeholderSQL = "-- SQL goes here"
)

var dirNamePattern = regexp.MustCompile(`^id=(\d+)$`)

// Store owns the on-disk migration layout rooted at a directory (the
// parent of the qop.toml config file). It performs no DB access and
// requires no external synchronization beyond the caller serializing its
// own calls.
type Store struct {
	Root string
}

// New returns a Store rooted at root.
func New(root string) *Store {
	return &Store{Root: root}
}

// ListLocal enumerates "id=<digits>" subdirectories of the store root and
// returns their bare IDs. Non-matching entries are ignored.
func (s *Store) ListLocal() (map[string]struct{}, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, qoperr.Wrap(qoperr.StoreIO, "failed to read migration store root", err)
	}

	ids := make(map[string]struct{})
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := dirNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		ids[m[1]] = struct{}{}
	}
	return ids, nil
}

// Create allocates a new migration ID, writes its skeleton up/down SQL
// files, and a meta.toml carrying the effective comment and lock flag.
// It returns the new ID.
func (s *Store) Create(comment *string, locked bool) (string, error) {
	id := NewID()
	dir := filepath.Join(s.Root, DirName(id))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", qoperr.Wrap(qoperr.StoreIO, "failed to create migration directory", err)
	}

	if err := os.WriteFile(filepath.Join(dir, upFileName), []byte(placeholderSQL+"\n"), 0o644); err != nil {
		return "", qoperr.Wrap(qoperr.StoreIO, "failed to write up.sql", err)
	}
	if err := os.WriteFile(filepath.Join(dir, downFileName), []byte(placeholderSQL+"\n"), 0o644); err != nil {
		return "", qoperr.Wrap(qoperr.StoreIO, "failed to write down.sql", err)
	}

	effectiveComment := defaultComment()
	if comment != nil {
		effectiveComment = *comment
	}
	meta := Meta{Comment: &effectiveComment}
	if locked {
		t := true
		meta.Locked = &t
	}

	if err := writeMetaFile(filepath.Join(dir, metaFileName), meta); err != nil {
		return "", err
	}

	return id, nil
}

// Read loads the up/down SQL and metadata for id. A missing meta.toml is
// tolerated (yields a default, all-absent Meta); a missing up.sql or
// down.sql is fatal.
func (s *Store) Read(id string) (Migration, error) {
	id = Normalize(id)
	dir := filepath.Join(s.Root, DirName(id))

	up, err := os.ReadFile(filepath.Join(dir, upFileName))
	if err != nil {
		return Migration{}, qoperr.Wrap(qoperr.StoreIO, fmt.Sprintf("failed to read up.sql for %s", id), err)
	}
	down, err := os.ReadFile(filepath.Join(dir, downFileName))
	if err != nil {
		return Migration{}, qoperr.Wrap(qoperr.StoreIO, fmt.Sprintf("failed to read down.sql for %s", id), err)
	}

	meta, err := readMetaFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return Migration{}, err
	}

	return Migration{ID: id, Up: string(up), Down: string(down), Meta: meta}, nil
}

// Rename performs an atomic directory rename used by history-fix.
func (s *Store) Rename(oldID, newID string) error {
	oldDir := filepath.Join(s.Root, DirName(oldID))
	newDir := filepath.Join(s.Root, DirName(newID))
	if err := os.Rename(oldDir, newDir); err != nil {
		return qoperr.Wrap(qoperr.StoreIO, fmt.Sprintf("failed to rename %s to %s", oldID, newID), err)
	}
	return nil
}

// Write materializes up/down/meta files for id, overwriting anything
// already there. Used by `history sync` to pull migrations out of the
// remote ledger.
func (s *Store) Write(id, up, down string, comment *string) error {
	dir := filepath.Join(s.Root, DirName(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return qoperr.Wrap(qoperr.StoreIO, "failed to create migration directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, upFileName), []byte(up), 0o644); err != nil {
		return qoperr.Wrap(qoperr.StoreIO, "failed to write up.sql", err)
	}
	if err := os.WriteFile(filepath.Join(dir, downFileName), []byte(down), 0o644); err != nil {
		return qoperr.Wrap(qoperr.StoreIO, "failed to write down.sql", err)
	}
	return writeMetaFile(filepath.Join(dir, metaFileName), Meta{Comment: comment})
}

func readMetaFile(path string) (Meta, error) {
	var meta Meta
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Meta{}, nil
	}
	if _, err := toml.DecodeFile(path, &meta); err != nil {
		return Meta{}, qoperr.Wrap(qoperr.StoreIO, "failed to decode meta.toml", err)
	}
	return meta, nil
}

func writeMetaFile(path string, meta Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return qoperr.Wrap(qoperr.StoreIO, "failed to create meta.toml", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(meta); err != nil {
		return qoperr.Wrap(qoperr.StoreIO, "failed to encode meta.toml", err)
	}
	return nil
}

func defaultComment() string {
	name := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return fmt.Sprintf("Created by %s at %s", name, time.Now().UTC().Format(time.RFC3339))
}
