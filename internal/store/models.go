package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Section kinds.
const (
	// SectionLink is a titled entry, optionally linked, with notes.
	SectionLink = "link"
	// SectionInline is a bold inline link rather than a subheader.
	SectionInline = "inline"
	// SectionHeading is a column heading followed by a separator.
	SectionHeading = "heading"
)

// Tab is one top-level content tab of the dashboard.
type Tab struct {
	ID        uint   `gorm:"primaryKey"`
	Slug      string `gorm:"size:64;uniqueIndex"`
	Title     string `gorm:"size:128"`
	Header    string `gorm:"size:256"`
	Intro     string `gorm:"type:text"`
	Footer    string `gorm:"type:text"`
	Columns   int
	Position  int `gorm:"index"`
	Sections  []Section
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Section is one entry within a tab.
type Section struct {
	ID           uint   `gorm:"primaryKey"`
	TabID        uint   `gorm:"index"`
	Kind         string `gorm:"size:16"`
	ColumnIndex  int
	Position     int    `gorm:"index"`
	Title        string `gorm:"size:256"`
	URL          string `gorm:"size:512"`
	VideoURL     string `gorm:"size:512"`
	BulletsTitle string `gorm:"size:256"`
	NotesJSON    string `gorm:"type:text"`
	BulletsJSON  string `gorm:"type:text"`
	Callouts     []Callout
}

// Callout is a highlighted info, warning or tip box attached to a section.
type Callout struct {
	ID        uint   `gorm:"primaryKey"`
	SectionID uint   `gorm:"index"`
	Kind      string `gorm:"size:16"`
	Text      string `gorm:"type:text"`
	Position  int
}

// SetNotes persists the description paragraphs as JSON.
func (s *Section) SetNotes(notes []string) {
	s.NotesJSON = encodeList(notes)
}

// Notes returns the description paragraphs.
func (s *Section) Notes() []string {
	return decodeList(s.NotesJSON)
}

// SetBullets persists the bullet list as JSON.
func (s *Section) SetBullets(bullets []string) {
	s.BulletsJSON = encodeList(bullets)
}

// Bullets returns the bullet list.
func (s *Section) Bullets() []string {
	return decodeList(s.BulletsJSON)
}

func encodeList(items []string) string {
	if items == nil {
		return "[]"
	}
	payload, _ := json.Marshal(items)
	return string(payload)
}

func decodeList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
