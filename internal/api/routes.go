package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"resource-dashboard/internal/content"
	"resource-dashboard/internal/session"
	"resource-dashboard/internal/store"
)

// SessionCookie carries the visitor's session id.
const SessionCookie = "dashboard_session"

var errSessionNotFound = errors.New("session not found")

// Config defines server dependencies.
type Config struct {
	DBPath         string
	CatalogPath    string
	AllowedOrigins []string
	SilentDB       bool
	SecureCookie   bool
	Session        session.Config
}

// Server wires HTTP handlers with the content store and visitor sessions.
type Server struct {
	db             *store.Database
	content        *content.Service
	sessions       *session.Manager
	allowedOrigins []string
	secureCookie   bool
}

// NewServer constructs the API server and seeds the content catalog.
func NewServer(cfg Config) (*Server, error) {
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	svc := content.NewService(db)
	if err := svc.Seed(catalog); err != nil {
		_ = db.Close()
		return nil, err
	}

	sessions := session.NewManager(cfg.Session)
	effective := sessions.Config()
	logrus.WithFields(logrus.Fields{
		"refresh_interval": effective.RefreshInterval,
		"session_ttl":      effective.TTL,
		"max_name_length":  effective.MaxNameLength,
	}).Info("session manager ready")

	return &Server{
		db:             db,
		content:        svc,
		sessions:       sessions,
		allowedOrigins: cfg.AllowedOrigins,
		secureCookie:   cfg.SecureCookie,
	}, nil
}

func loadCatalog(path string) (content.Catalog, error) {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		catalog, err := content.LoadFile(trimmed)
		if err != nil {
			return content.Catalog{}, fmt.Errorf("catalog %s: %w", trimmed, err)
		}
		logrus.WithField("path", trimmed).Info("loaded content catalog from file")
		return catalog, nil
	}
	return content.Embedded()
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// RunJanitor evicts idle sessions until ctx is done.
func (s *Server) RunJanitor(ctx context.Context) {
	s.sessions.Run(ctx)
}

// Close ends every session and closes the store.
func (s *Server) Close() error {
	s.sessions.Close()
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/", s.handleIndex)
	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.GET("/content", s.handleContent)
		api.GET("/content/:slug", s.handleContentTab)
		api.GET("/session", s.handleSession)
		api.POST("/session/name", s.handleSetName)
		api.POST("/stopwatch/start", s.handleStart)
		api.POST("/stopwatch/stop", s.handleStop)
		api.POST("/stopwatch/reset", s.handleReset)
		api.POST("/surprise", s.handleSurprise)
		api.GET("/stream", s.handleStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	cfg := s.sessions.Config()
	c.JSON(http.StatusOK, gin.H{
		"refresh_interval_ms": cfg.RefreshInterval.Milliseconds(),
		"session_ttl":         cfg.TTL.String(),
		"max_name_length":     cfg.MaxNameLength,
		"tabs":                s.content.Count(),
		"sections":            s.content.Sections(),
		"sessions":            s.sessions.Len(),
	})
}

func (s *Server) handleContent(c *gin.Context) {
	tabs, err := s.contentTabs()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, ContentResponse{Title: s.content.Title(), Tabs: tabs})
}

func (s *Server) handleContentTab(c *gin.Context) {
	slug := c.Param("slug")
	tab, err := s.content.Tab(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("tab %s not found", slug))
			return
		}
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, TabFromModel(*tab))
}

func (s *Server) handleSession(c *gin.Context) {
	sess := s.sessionFor(c)
	c.JSON(http.StatusOK, SessionFromSnapshot(sess.Snapshot()))
}

func (s *Server) handleSetName(c *gin.Context) {
	sess := s.sessionFor(c)

	var req NameRequest
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
	}

	snap, err := sess.SetName(req.Name)
	if err != nil {
		if errors.Is(err, session.ErrNameTooLong) {
			s.renderError(c, http.StatusBadRequest, err)
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, SessionFromSnapshot(snap))
}

func (s *Server) handleStart(c *gin.Context) {
	c.JSON(http.StatusOK, StopwatchFromSnapshot(s.sessionFor(c).Start()))
}

func (s *Server) handleStop(c *gin.Context) {
	c.JSON(http.StatusOK, StopwatchFromSnapshot(s.sessionFor(c).Stop()))
}

func (s *Server) handleReset(c *gin.Context) {
	c.JSON(http.StatusOK, StopwatchFromSnapshot(s.sessionFor(c).Reset()))
}

func (s *Server) handleSurprise(c *gin.Context) {
	event := s.sessionFor(c).Surprise()
	c.JSON(http.StatusOK, SurpriseResponse{Animation: event.Animation})
}

// sessionFor returns the caller's session, creating it and setting the
// cookie when the request carries no known id.
func (s *Server) sessionFor(c *gin.Context) *session.Session {
	id, _ := c.Cookie(SessionCookie)
	sess, _ := s.sessions.GetOrCreate(id)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, int(s.sessions.Config().TTL.Seconds()), "/", "", s.secureCookie, true)
	return sess
}

func (s *Server) existingSession(c *gin.Context) (*session.Session, bool) {
	id, err := c.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.Get(id)
}

func (s *Server) contentTabs() ([]TabDTO, error) {
	tabs, err := s.content.Tabs()
	if err != nil {
		return nil, err
	}
	dtos := make([]TabDTO, 0, len(tabs))
	for _, tab := range tabs {
		dtos = append(dtos, TabFromModel(tab))
	}
	return dtos, nil
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
