package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"resource-dashboard/internal/store"
)

//go:embed catalog.json
var embeddedCatalog []byte

// Catalog is the static content of the dashboard as authored in JSON.
type Catalog struct {
	Title string    `json:"title"`
	Tabs  []TabSpec `json:"tabs"`
}

// TabSpec describes one tab.
type TabSpec struct {
	Slug     string        `json:"slug"`
	Title    string        `json:"title"`
	Header   string        `json:"header"`
	Intro    string        `json:"intro"`
	Footer   string        `json:"footer"`
	Columns  int           `json:"columns"`
	Sections []SectionSpec `json:"sections"`
}

// SectionSpec describes one entry of a tab.
type SectionSpec struct {
	Kind         string        `json:"kind"`
	Column       int           `json:"column"`
	Title        string        `json:"title"`
	URL          string        `json:"url"`
	VideoURL     string        `json:"video_url"`
	Notes        []string      `json:"notes"`
	BulletsTitle string        `json:"bullets_title"`
	Bullets      []string      `json:"bullets"`
	Callouts     []CalloutSpec `json:"callouts"`
}

// CalloutSpec describes a highlighted box.
type CalloutSpec struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

var calloutKinds = map[string]struct{}{
	"info":    {},
	"warning": {},
	"tip":     {},
}

// Embedded returns the catalog compiled into the binary.
func Embedded() (Catalog, error) {
	return Parse(embeddedCatalog)
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalog.normalize(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c *Catalog) normalize() error {
	if len(c.Tabs) == 0 {
		return fmt.Errorf("catalog has no tabs")
	}
	seen := make(map[string]struct{}, len(c.Tabs))
	for i := range c.Tabs {
		tab := &c.Tabs[i]
		tab.Slug = strings.TrimSpace(tab.Slug)
		if tab.Slug == "" {
			return fmt.Errorf("tab %d: slug is required", i)
		}
		if _, dup := seen[tab.Slug]; dup {
			return fmt.Errorf("tab %q: duplicate slug", tab.Slug)
		}
		seen[tab.Slug] = struct{}{}
		if strings.TrimSpace(tab.Title) == "" {
			return fmt.Errorf("tab %q: title is required", tab.Slug)
		}
		if tab.Columns <= 0 {
			tab.Columns = 1
		}
		if tab.Columns > 2 {
			return fmt.Errorf("tab %q: at most 2 columns supported", tab.Slug)
		}
		for j := range tab.Sections {
			if err := tab.Sections[j].normalize(tab.Columns); err != nil {
				return fmt.Errorf("tab %q section %d: %w", tab.Slug, j, err)
			}
		}
	}
	return nil
}

func (s *SectionSpec) normalize(columns int) error {
	switch s.Kind {
	case "":
		s.Kind = store.SectionLink
	case store.SectionLink, store.SectionInline, store.SectionHeading:
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if columns == 1 {
		s.Column = 0
	} else if s.Column < 1 || s.Column > columns {
		return fmt.Errorf("column %d outside 1..%d", s.Column, columns)
	}
	for _, callout := range s.Callouts {
		if _, ok := calloutKinds[callout.Kind]; !ok {
			return fmt.Errorf("unknown callout kind %q", callout.Kind)
		}
	}
	return nil
}

// Models converts the catalog to store rows with positions assigned in
// authoring order.
func (c Catalog) Models() []store.Tab {
	tabs := make([]store.Tab, 0, len(c.Tabs))
	for i, spec := range c.Tabs {
		tab := store.Tab{
			Slug:     spec.Slug,
			Title:    spec.Title,
			Header:   spec.Header,
			Intro:    spec.Intro,
			Footer:   spec.Footer,
			Columns:  spec.Columns,
			Position: i,
		}
		for j, sec := range spec.Sections {
			section := store.Section{
				Kind:         sec.Kind,
				ColumnIndex:  sec.Column,
				Position:     j,
				Title:        sec.Title,
				URL:          sec.URL,
				VideoURL:     sec.VideoURL,
				BulletsTitle: sec.BulletsTitle,
			}
			section.SetNotes(sec.Notes)
			section.SetBullets(sec.Bullets)
			for k, callout := range sec.Callouts {
				section.Callouts = append(section.Callouts, store.Callout{
					Kind:     callout.Kind,
					Text:     callout.Text,
					Position: k,
				})
			}
			tab.Sections = append(tab.Sections, section)
		}
		tabs = append(tabs, tab)
	}
	return tabs
}
