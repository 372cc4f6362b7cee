// Package sqltest provides SQLite stores for tests.
package sqltest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore creates a migrated in-memory SQLite store private to the test.
// The underlying connection is closed when the test finishes.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), sqlstore.Config(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	store := sqlstore.New(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return store
}

// NewFileStore creates a migrated SQLite store in a file under the test's
// temporary directory, served by up to conns connections. Write transactions
// take the database lock when they begin and wait for it while another one
// holds it.
func NewFileStore(t *testing.T, conns int) *sqlstore.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "xplus.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", path)
	db, err := gorm.Open(sqlite.Open(dsn), sqlstore.Config(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	store := sqlstore.New(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return store
}
