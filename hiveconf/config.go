// Package hiveconf wraps the core's recognized configuration options in
// a small viper-backed loader, the way the teacher's repo never had to
// but the rest of the pack's services (bencoepp-bib, forbearing-gst,
// and others) configure themselves.
package hiveconf

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hivegraph/hivecore/hivequery"
)

// Options holds the configuration keys the row store recognizes: path
// (row DB location), pool (handle count), and rev:storage (migration
// gate) — spec §6's "Configuration options recognized by the core".
type Options struct {
	Path        string
	Pool        int
	RevStorage  bool
	DialectName string
}

// Load reads configuration from v, applying the documented defaults:
// pool=1, rev:storage=false. path is required.
func Load(v *viper.Viper) (Options, error) {
	v.SetDefault("pool", 1)
	v.SetDefault("rev:storage", false)
	v.SetDefault("dialect", "sqlite3")

	path := v.GetString("path")
	if path == "" {
		return Options{}, fmt.Errorf("hiveconf: \"path\" is required")
	}

	return Options{
		Path:        path,
		Pool:        v.GetInt("pool"),
		RevStorage:  v.GetBool("rev:storage"),
		DialectName: v.GetString("dialect"),
	}, nil
}

// Dialect resolves the configured dialect name to a hivequery.Dialect.
func (o Options) Dialect() (*hivequery.Dialect, error) {
	switch o.DialectName {
	case "", "sqlite3":
		return hivequery.Dialects.SQLite, nil
	case "pgx", "postgres", "postgresql":
		return hivequery.Dialects.PostgreSQL, nil
	case "mysql":
		return hivequery.Dialects.MySQL, nil
	default:
		return nil, fmt.Errorf("hiveconf: unknown dialect %q", o.DialectName)
	}
}
