package api

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PageData feeds templates/index.html.
type PageData struct {
	Title         string
	Session       SessionDTO
	Tabs          []TabDTO
	RefreshMillis int64
	MaxNameLength int
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"inColumn": sectionsInColumn,
	}).ParseFS(templatesFS, "templates/*.html")
}

func (s *Server) handleIndex(c *gin.Context) {
	sess := s.sessionFor(c)
	tabs, err := s.contentTabs()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	cfg := s.sessions.Config()
	c.HTML(http.StatusOK, "index.html", PageData{
		Title:         s.content.Title(),
		Session:       SessionFromSnapshot(sess.Snapshot()),
		Tabs:          tabs,
		RefreshMillis: cfg.RefreshInterval.Milliseconds(),
		MaxNameLength: cfg.MaxNameLength,
	})
}

func sectionsInColumn(sections []SectionDTO, column int) []SectionDTO {
	out := make([]SectionDTO, 0, len(sections))
	for _, section := range sections {
		if section.Column == column {
			out = append(out, section)
		}
	}
	return out
}

// embedURL maps a YouTube watch or short link to its embeddable player URL.
// Other URLs yield "".
func embedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	var id string
	switch strings.TrimPrefix(strings.ToLower(u.Host), "www.") {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		}
	}
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return "https://www.youtube.com/embed/" + url.PathEscape(id)
}
