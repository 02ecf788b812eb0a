package common

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var db *gorm.DB

// Init opens the database and stores the handle for GetDB.
// The path comes from DATABASE_PATH, defaulting to a local file.
func Init() *gorm.DB {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "yamdb.db"
	}

	// SQLite does not enforce foreign keys unless asked. The DSN parameter
	// applies the pragma to every connection the pool opens; a one-shot
	// Exec would only cover whichever connection happened to run it.
	conn, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", path, err)
	}

	db = conn
	return db
}

// InitTest opens a fresh in-memory database, for use in tests. Each call
// gets its own named memory DB; cache=shared keeps it visible across the
// pool's connections.
func InitTest() *gorm.DB {
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", n)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open test database: %v", err)
	}

	db = conn
	return db
}

var testDBCounter int64

// GetDB returns the database handle opened by Init.
func GetDB() *gorm.DB {
	return db
}
