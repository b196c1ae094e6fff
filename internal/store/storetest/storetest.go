// Package storetest provides throwaway stores for tests.
package storetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"mhp-content/config"
	"mhp-content/internal/store"
)

// SQLite returns a migrated store backed by a private in-memory database.
func SQLite(tb testing.TB) *store.GormStore {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return migrated(tb, db)
}

// Postgres returns a migrated store on TEST_POSTGRES_DSN, skipping the test when it is unset.
func Postgres(tb testing.TB) *store.GormStore {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open postgres: %v", err)
	}
	s := migrated(tb, db)
	tb.Cleanup(func() {
		db.Exec("DELETE FROM articles")
	})
	return s
}

func migrated(tb testing.TB, db *gorm.DB) *store.GormStore {
	s := store.NewGormStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

// Mongo returns a migrated store in a throwaway database on TEST_MONGO_URI, skipping the test when it is unset.
func Mongo(tb testing.TB) *store.MongoStore {
	tb.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		tb.Skip("set TEST_MONGO_URI to run mongo integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cfg := config.MongoConfig{
		URI:        uri,
		Database:   "mhp_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Collection: "articles",
	}
	s, err := store.NewMongoStore(ctx, cfg)
	if err != nil {
		tb.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate: %v", err)
	}
	tb.Cleanup(func() {
		dropCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.DropDatabase(dropCtx)
		_ = s.Close()
	})
	return s
}
