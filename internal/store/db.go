package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN keeps the catalog in a shared in-memory database that lives as
// long as the process.
const MemoryDSN = "file:dashboard?mode=memory&cache=shared"

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided DSN.
func Open(path string, silent bool) (*Database, error) {
	if path == "" {
		path = MemoryDSN
	}
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if strings.Contains(path, "mode=memory") {
		// Shared-cache memory databases lock per table; one connection
		// avoids SQLITE_LOCKED under concurrent readers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Tab{}, &Section{}, &Callout{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceCatalog swaps the stored tabs, sections and callouts with the
// provided tabs. Nested sections and callouts are created with their tab.
func (d *Database) ReplaceCatalog(tabs []Tab) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&Callout{}, &Section{}, &Tab{}} {
			if err := global.Delete(model).Error; err != nil {
				return err
			}
		}
		if len(tabs) == 0 {
			return nil
		}
		return tx.Create(&tabs).Error
	})
}

// ListTabs returns every tab with its sections and callouts, in display order.
func (d *Database) ListTabs() ([]Tab, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	var tabs []Tab
	err := d.gorm.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.column_index ASC, sections.position ASC")
		}).
		Preload("Sections.Callouts", func(db *gorm.DB) *gorm.DB {
			return db.Order("callouts.position ASC")
		}).
		Order("position ASC").
		Find(&tabs).Error
	if err != nil {
		return nil, err
	}
	return tabs, nil
}

// GetTab returns one tab by slug.
func (d *Database) GetTab(slug string) (*Tab, error) {
	var tab Tab
	err := d.gorm.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.column_index ASC, sections.position ASC")
		}).
		Preload("Sections.Callouts", func(db *gorm.DB) *gorm.DB {
			return db.Order("callouts.position ASC")
		}).
		Where("slug = ?", slug).
		First(&tab).Error
	if err != nil {
		return nil, err
	}
	return &tab, nil
}

// CountTabs returns the number of stored tabs.
func (d *Database) CountTabs() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Tab{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountSections returns the number of stored sections.
func (d *Database) CountSections() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Section{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_sections_tab_column_position ON sections(tab_id, column_index, position)",
		"CREATE INDEX IF NOT EXISTS idx_callouts_section_position ON callouts(section_id, position)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
