package hivestore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hivegraph/hivecore/hiveerr"
)

// Migration advances the schema from one version to the next. Apply runs
// inside the same transaction as the version-sentinel update, so a
// failed migration never leaves a store on a version it didn't actually
// reach. Apply may return a non-zero version to jump to instead of
// Version itself; returning 0 persists Version as usual. Grounded on the
// (version, func) pairs _revCorVers walks in the original storage layer.
type Migration struct {
	Version int
	Apply   func(ctx context.Context, s *Store, t *Txn) (jumpTo int, err error)
}

func versionKey(dialectName string) string {
	return fmt.Sprintf("syn:core:%s:version", dialectName)
}

const createdKey = "syn:core:created"

// initSchema creates the row/blob/trigger tables on a fresh store, or
// retrofits the blob table and applies pending migrations on an existing
// one — spec §4.6.
func (s *Store) initSchema(ctx context.Context, migrations []Migration) error {
	exists, err := s.tableExists(ctx, s.cat.table)
	if err != nil {
		return err
	}

	if !exists {
		return s.bootstrap(ctx, migrations)
	}

	blobExists, err := s.tableExists(ctx, s.cat.blob)
	if err != nil {
		return err
	}
	if !blobExists {
		if err := s.withTxn(ctx, func(t *Txn) error {
			return s.createBlobAndTriggerTables(ctx, t)
		}); err != nil {
			return err
		}
	}

	return s.runMigrations(ctx, migrations)
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.IsTable
		args := p.Args(map[string]any{"name": name})
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("tableExists", p.SQL, args, err)
		}
		defer rows.Close()
		found = rows.Next()
		return rows.Err()
	})
	return found, err
}

func (s *Store) bootstrap(ctx context.Context, migrations []Migration) error {
	return s.withTxn(ctx, func(t *Txn) error {
		for _, ddl := range []string{
			s.cat.InitTable.SQL,
			s.cat.InitIdenIdx.SQL,
			s.cat.InitPropIdx.SQL,
			s.cat.InitStrvalIdx.SQL,
			s.cat.InitIntvalIdx.SQL,
		} {
			if _, err := t.exec(ctx, ddl); err != nil {
				return hiveerr.WrapQuery("bootstrap", ddl, nil, err)
			}
		}
		if err := s.createBlobAndTriggerTables(ctx, t); err != nil {
			return err
		}

		latest := 0
		for _, m := range migrations {
			if m.Version > latest {
				latest = m.Version
			}
		}

		var vbuf [8]byte
		binary.BigEndian.PutUint64(vbuf[:], uint64(latest))
		if err := s.setBlobTx(ctx, t, versionKey(s.dialectName), vbuf[:]); err != nil {
			return err
		}

		var now [8]byte
		binary.BigEndian.PutUint64(now[:], uint64(s.clock()))
		return s.setBlobTx(ctx, t, createdKey, now[:])
	})
}

func (s *Store) createBlobAndTriggerTables(ctx context.Context, t *Txn) error {
	for _, ddl := range []string{
		s.cat.InitBlobTable.SQL,
		s.cat.InitBlobIdx.SQL,
		s.cat.InitTriggerTable.SQL,
		s.cat.InitTriggerIdx.SQL,
	} {
		if _, err := t.exec(ctx, ddl); err != nil {
			return hiveerr.WrapQuery("createBlobAndTriggerTables", ddl, nil, err)
		}
	}
	return nil
}

func (s *Store) runMigrations(ctx context.Context, migrations []Migration) error {
	if len(migrations) == 0 {
		return nil
	}

	current, err := s.currentVersion(ctx)
	if err != nil {
		return err
	}

	pending := false
	for _, m := range migrations {
		if m.Version > current {
			pending = true
			break
		}
	}
	if !pending {
		return nil
	}
	if !s.allowRev {
		return fmt.Errorf("%w: rev:storage must be set to apply pending schema migrations", hiveerr.ErrNoRevAllow)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		next := m.Version
		s.log.Warnw("applying schema migration", "version", m.Version)
		if err := s.withTxn(ctx, func(t *Txn) error {
			jumpTo, err := m.Apply(ctx, s, t)
			if err != nil {
				return fmt.Errorf("migration to version %d: %w", m.Version, err)
			}
			if jumpTo != 0 {
				next = jumpTo
			}
			var vbuf [8]byte
			binary.BigEndian.PutUint64(vbuf[:], uint64(next))
			return s.setBlobTx(ctx, t, versionKey(s.dialectName), vbuf[:])
		}); err != nil {
			return err
		}
		s.log.Warnw("applied schema migration", "version", next)
		current = next
	}
	return nil
}

func (s *Store) currentVersion(ctx context.Context) (int, error) {
	v, err := s.GetBlob(ctx, versionKey(s.dialectName))
	if err != nil {
		if errors.Is(err, hiveerr.ErrNoSuchName) {
			return -1, nil
		}
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("%w: version sentinel is %d bytes, want 8", hiveerr.ErrBadCoreStore, len(v))
	}
	return int(binary.BigEndian.Uint64(v)), nil
}
