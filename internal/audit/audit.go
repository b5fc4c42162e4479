// Package audit keeps a local trail of mutating API calls: who did what,
// when, from where. The trail lives in its own sqlite database, separate
// from the remote account store.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one recorded operation.
type Entry struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Actor     string `gorm:"size:255;index" json:"actor"`
	Method    string `gorm:"size:16" json:"method"`
	Path      string `gorm:"size:255" json:"path"`
	Detail    string `gorm:"size:2048" json:"detail"`
	IP        string `gorm:"size:64" json:"ip"`
	UserAgent string `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Open creates the sqlite database (and its directory) and migrates the
// schema.
func Open(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate audit database: %w", err)
	}
	return db, nil
}

// List returns the most recent entries, newest first.
func List(db *gorm.DB, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []Entry
	if err := db.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
