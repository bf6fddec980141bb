// apps/go-server/db.go
//
// Database bootstrap for the forge server.
// Responsibilities:
//   - Opening the SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded migrations (idempotent, recorded in _migrations).
//
// The driver is picked at build time: mattn/go-sqlite3 when cgo is available
// (db_cgo.go), the pure-Go modernc.org/sqlite otherwise (db_purego.go).

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/forgerush/apps/go-server/assets"
	"github.com/robalobadob/forgerush/apps/go-server/internal/migrate"
)

// openDB opens (and creates if missing) the SQLite database at path and
// brings its schema up to date.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	// Ensure directory exists for ./data/forge.db, etc.
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open(driverName, path+dsnOptions)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	applied, err := migrate.Apply(ctx, db, assets.Migrations())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Str("driver", driverName).Strs("applied", applied).Msg("database ready")
	return db, nil
}
