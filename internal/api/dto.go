package api

import (
	"time"

	"resource-dashboard/internal/session"
	"resource-dashboard/internal/store"
)

// NameRequest sets the sidebar name input.
type NameRequest struct {
	Name string `json:"name"`
}

// StopwatchDTO is the API representation of a stopwatch.
type StopwatchDTO struct {
	Phase             string     `json:"phase"`
	Running           bool       `json:"running"`
	Display           string     `json:"display"`
	ElapsedSeconds    float64    `json:"elapsed_seconds"`
	StopOffsetSeconds float64    `json:"stop_offset_seconds"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
}

// SessionDTO is the API representation of a visitor session.
type SessionDTO struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Greeting  string       `json:"greeting"`
	Stopwatch StopwatchDTO `json:"stopwatch"`
}

// SurpriseResponse names the animation the page should play.
type SurpriseResponse struct {
	Animation string `json:"animation"`
}

// CalloutDTO is a highlighted box.
type CalloutDTO struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// SectionDTO is one entry of a tab.
type SectionDTO struct {
	Kind         string       `json:"kind"`
	Column       int          `json:"column"`
	Title        string       `json:"title"`
	URL          string       `json:"url,omitempty"`
	VideoURL     string       `json:"video_url,omitempty"`
	EmbedURL     string       `json:"embed_url,omitempty"`
	Notes        []string     `json:"notes,omitempty"`
	BulletsTitle string       `json:"bullets_title,omitempty"`
	Bullets      []string     `json:"bullets,omitempty"`
	Callouts     []CalloutDTO `json:"callouts,omitempty"`
}

// TabDTO is one content tab.
type TabDTO struct {
	Slug     string       `json:"slug"`
	Title    string       `json:"title"`
	Header   string       `json:"header"`
	Intro    string       `json:"intro,omitempty"`
	Footer   string       `json:"footer,omitempty"`
	Columns  int          `json:"columns"`
	Sections []SectionDTO `json:"sections"`
}

// ContentResponse lists every tab.
type ContentResponse struct {
	Title string   `json:"title"`
	Tabs  []TabDTO `json:"tabs"`
}

// StopwatchFromSnapshot converts a session snapshot.
func StopwatchFromSnapshot(snap session.Snapshot) StopwatchDTO {
	dto := StopwatchDTO{
		Phase:             snap.Phase.String(),
		Running:           snap.Running,
		Display:           snap.Display,
		ElapsedSeconds:    snap.Elapsed.Seconds(),
		StopOffsetSeconds: snap.StopOffset.Seconds(),
	}
	if !snap.StartedAt.IsZero() {
		started := snap.StartedAt.UTC()
		dto.StartedAt = &started
	}
	return dto
}

// SessionFromSnapshot converts a session snapshot.
func SessionFromSnapshot(snap session.Snapshot) SessionDTO {
	return SessionDTO{
		ID:        snap.ID,
		Name:      snap.Name,
		Greeting:  snap.Greeting,
		Stopwatch: StopwatchFromSnapshot(snap),
	}
}

// TabFromModel converts a stored tab.
func TabFromModel(tab store.Tab) TabDTO {
	dto := TabDTO{
		Slug:     tab.Slug,
		Title:    tab.Title,
		Header:   tab.Header,
		Intro:    tab.Intro,
		Footer:   tab.Footer,
		Columns:  tab.Columns,
		Sections: make([]SectionDTO, 0, len(tab.Sections)),
	}
	for _, section := range tab.Sections {
		dto.Sections = append(dto.Sections, SectionFromModel(section))
	}
	return dto
}

// SectionFromModel converts a stored section.
func SectionFromModel(section store.Section) SectionDTO {
	dto := SectionDTO{
		Kind:         section.Kind,
		Column:       section.ColumnIndex,
		Title:        section.Title,
		URL:          section.URL,
		VideoURL:     section.VideoURL,
		EmbedURL:     embedURL(section.VideoURL),
		Notes:        section.Notes(),
		BulletsTitle: section.BulletsTitle,
		Bullets:      section.Bullets(),
	}
	for _, callout := range section.Callouts {
		dto.Callouts = append(dto.Callouts, CalloutDTO{Kind: callout.Kind, Text: callout.Text})
	}
	return dto
}
