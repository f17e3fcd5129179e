// internal/store/sqlite.go
//
// SQLite-backed implementation of the Store interface.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Saving rounds as JSON game.State, random source position included, so a
//     restored round keeps drawing the same targets.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/assets"
	"github.com/robalobadob/starmatch/internal/game"
	"github.com/robalobadob/starmatch/internal/puzzle"
)

// OpenDB opens (and creates if missing) a SQLite database.
//
//   - Ensures the parent directory exists for file DSNs (e.g. ./data/app.db).
//   - Configures busy timeout and WAL journaling.
//   - Uses a single connection so ":memory:" databases are shared.
func OpenDB(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded migrations not yet recorded in _migrations,
// each inside its own transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	migrations, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	for _, m := range migrations {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, m.Name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", m.Name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.Name, err)
		}
		log.Info().Str("migration", m.Name).Msg("applied")
	}
	return nil
}

// sqliteStore keeps one row per live round.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore migrates db and returns a Store backed by it.
// The caller owns db and closes it.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (Store, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Save(ctx context.Context, g *game.Game) error {
	if g == nil {
		return game.ErrNilGame
	}
	st, err := g.State()
	if err != nil {
		return err
	}
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO games (id, state, status, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            state = excluded.state,
            status = excluded.status,
            updated_at = excluded.updated_at`,
		g.ID, string(blob), string(g.Status()), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*game.Game, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM games WHERE id=?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var st game.State
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	// Rounds created with a non-marshalable source resume on a fresh one.
	return game.Restore(st, puzzle.NewSource(uint64(time.Now().UnixNano())))
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	return err
}
