package api

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"resource-dashboard/internal/session"
)

const streamWriteTimeout = 10 * time.Second

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn}
}

// Send writes one event as JSON.
func (c *wsClient) Send(event session.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(event)
}

// Close closes the socket. It is safe to call more than once.
func (c *wsClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

var _ session.Sink = (*wsClient)(nil)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin:       s.checkOrigin,
	}
}

// checkOrigin accepts the configured origins, or only same-host pages when
// none are configured. Clients that send no Origin are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(s.allowedOrigins) == 0 {
		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(parsed.Host, r.Host)
	}
	for _, allowed := range s.allowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// handleStream feeds the stopwatch placeholder of one page.
func (s *Server) handleStream(c *gin.Context) {
	sess, ok := s.existingSession(c)
	if !ok {
		s.renderError(c, http.StatusNotFound, errSessionNotFound)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	remote := conn.RemoteAddr().String()
	client := newWSClient(conn)
	if err := sess.Attach(client); err != nil {
		logrus.WithError(err).WithField("remote", remote).Warn("send initial frame")
		_ = client.Close()
		return
	}
	logrus.WithFields(logrus.Fields{
		"remote":  remote,
		"session": sess.ID,
	}).Info("placeholder stream connected")
	defer sess.Detach(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("remote", remote).Warn("placeholder stream unexpected close")
			} else {
				logrus.WithField("remote", remote).Info("placeholder stream closed")
			}
			return
		}
	}
}
