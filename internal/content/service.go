package content

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"resource-dashboard/internal/store"
	"resource-dashboard/internal/util"
)

// Service serves the dashboard content from the store.
type Service struct {
	db    *store.Database
	title string
}

// NewService wraps db.
func NewService(db *store.Database) *Service {
	return &Service{db: db}
}

// Seed replaces the stored content with catalog.
func (s *Service) Seed(catalog Catalog) error {
	timer := util.StartTimer()
	tabs := catalog.Models()
	if err := s.db.ReplaceCatalog(tabs); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	s.title = catalog.Title
	sections := 0
	for _, tab := range tabs {
		sections += len(tab.Sections)
	}
	logrus.WithFields(logrus.Fields{
		"tabs":        len(tabs),
		"sections":    sections,
		"duration_ms": timer.ElapsedMs(),
	}).Info("content catalog seeded")
	return nil
}

// Title returns the page title of the seeded catalog.
func (s *Service) Title() string {
	return s.title
}

// Tabs returns every tab in display order.
func (s *Service) Tabs() ([]store.Tab, error) {
	return s.db.ListTabs()
}

// Tab returns a single tab by slug.
func (s *Service) Tab(slug string) (*store.Tab, error) {
	return s.db.GetTab(slug)
}

// Count returns the number of tabs.
func (s *Service) Count() int {
	count, err := s.db.CountTabs()
	if err != nil {
		logrus.WithError(err).Warn("count tabs")
		return 0
	}
	return int(count)
}

// Sections returns the number of stored sections across all tabs.
func (s *Service) Sections() int {
	count, err := s.db.CountSections()
	if err != nil {
		logrus.WithError(err).Warn("count sections")
		return 0
	}
	return int(count)
}
