// SPDX-License-Identifier: Apache-2.0

// Package config loads qop.toml and implements the version-compatibility
// check between the tool version and the ledger's last recorded version.
// It does not read the ledger itself; the caller supplies that version.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"

	"github.com/cchexcode/qop/pkg/qoperr"
)

// Sentinel tool version that always bypasses the version handshake.
const SentinelVersion = "0.0.0"

// Subsystem identifies which backend a qop.toml targets.
type Subsystem string

const (
	SubsystemPostgres Subsystem = "postgres"
	SubsystemSQLite   Subsystem = "sqlite"
)

// Connection is either a literal connection string or a reference to an
// environment variable, resolved at pool-construction time.
type Connection struct {
	Literal string
	EnvVar  string
}

// Resolve returns the literal connection string, reading the
// environment if this Connection is an env reference.
func (c Connection) Resolve() (string, error) {
	if c.EnvVar == "" {
		return c.Literal, nil
	}
	v, ok := os.LookupEnv(c.EnvVar)
	if !ok {
		return "", qoperr.New(qoperr.ConfigError, fmt.Sprintf("environment variable %q referenced by qop.toml is not set", c.EnvVar))
	}
	return v, nil
}

func (c *Connection) UnmarshalText(text []byte) error {
	s := string(text)
	if rest, ok := strings.CutPrefix(s, "env:"); ok {
		c.EnvVar = rest
		return nil
	}
	c.Literal = s
	return nil
}

// SubsystemConfig is the [subsystem] table of qop.toml.
type SubsystemConfig struct {
	Connection      Connection `toml:"connection"`
	TimeoutSeconds  int        `toml:"timeout"`
	Schema          string     `toml:"schema"`
	TablePrefix     string     `toml:"table_prefix"`
}

// MigrationsTable and LogTable apply the configured prefix to the two
// ledger table names.
func (s SubsystemConfig) MigrationsTable() string {
	return s.prefixed("migrations")
}

func (s SubsystemConfig) LogTable() string {
	return s.prefixed("log")
}

func (s SubsystemConfig) prefixed(name string) string {
	if s.TablePrefix == "" {
		return name
	}
	return s.TablePrefix + "_" + name
}

// Config is the decoded, typed form of qop.toml.
type Config struct {
	Version  string            `toml:"version"`
	Postgres *SubsystemConfig  `toml:"postgres"`
	SQLite   *SubsystemConfig  `toml:"sqlite"`

	// Root is the directory containing qop.toml; it is the migration
	// store's root.
	Root string `toml:"-"`
}

// Load reads and decodes the qop.toml at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, qoperr.Wrap(qoperr.ConfigError, fmt.Sprintf("config file %s does not exist", path), err)
		}
		return nil, qoperr.Wrap(qoperr.ConfigError, "failed to parse qop.toml", err)
	}
	cfg.Root = filepath.Dir(path)
	return &cfg, nil
}

// Subsystem returns the requested subsystem's config, or a ConfigError
// if it is absent from the file.
func (c *Config) Subsystem(s Subsystem) (*SubsystemConfig, error) {
	var sc *SubsystemConfig
	switch s {
	case SubsystemPostgres:
		sc = c.Postgres
	case SubsystemSQLite:
		sc = c.SQLite
	}
	if sc == nil {
		return nil, qoperr.New(qoperr.ConfigError, fmt.Sprintf("qop.toml has no [%s] section", s))
	}
	return sc, nil
}

// WriteSample writes a fresh qop.toml seeded with toolVersion and the
// requested subsystem's connection, for `config init`.
func WriteSample(path string, toolVersion string, subsystem Subsystem, conn string) error {
	var body string
	switch subsystem {
	case SubsystemPostgres:
		body = fmt.Sprintf(`version = %q

[postgres]
connection = %q
timeout = 30
schema = "public"
table_prefix = "qop"
`, toolVersion, conn)
	case SubsystemSQLite:
		body = fmt.Sprintf(`version = %q

[sqlite]
connection = %q
timeout = 30
table_prefix = "qop"
`, toolVersion, conn)
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return qoperr.Wrap(qoperr.ConfigError, "failed to write sample qop.toml", err)
	}
	return nil
}

// CheckVersion implements the version handshake: if the
// ledger's last-applied version is strictly newer than toolVersion,
// refuse to run. The sentinel version "0.0.0" bypasses the check on
// either side.
func CheckVersion(toolVersion, ledgerVersion string) error {
	if toolVersion == SentinelVersion || ledgerVersion == "" || ledgerVersion == SentinelVersion {
		return nil
	}

	tv := ensureVPrefix(toolVersion)
	lv := ensureVPrefix(ledgerVersion)

	if !semver.IsValid(tv) || !semver.IsValid(lv) {
		// Unparseable versions (e.g. "development" builds) are not
		// checked for compatibility.
		return nil
	}

	if semver.Compare(lv, tv) > 0 {
		return qoperr.New(qoperr.VersionSkew, fmt.Sprintf(
			"ledger was last written by qop %s, which is newer than this binary (%s); upgrade qop before continuing", ledgerVersion, toolVersion))
	}
	return nil
}

func ensureVPrefix(v string) string {
	if v != "" && v[0] != 'v' {
		return "v" + v
	}
	return v
}
