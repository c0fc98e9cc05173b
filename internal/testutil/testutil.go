// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/client"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/config"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory sqlite database with the full schema.
// One connection keeps every statement of a test on the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Test names may hold URI characters such as '#', so only the uuid names the database.
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))

	db, err := client.InitDatabase(config.Database{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Logger discards everything.
func Logger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}
