package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite database named by url (a path or file: URI),
// creating the parent directory when needed.
func Open(url string, debug bool) (*gorm.DB, error) {
	if path := filePath(url); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open("sqlite3", dsn(url))
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers anyway; one connection keeps :memory: databases coherent.
	sqlDB.SetMaxOpenConns(1)

	gormLogger := logger.Discard
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite3", Conn: sqlDB}, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func dsn(url string) string {
	if url == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

func filePath(url string) string {
	if url == ":memory:" || strings.Contains(url, "mode=memory") {
		return ""
	}
	path := strings.TrimPrefix(url, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
