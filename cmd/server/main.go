package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"resource-dashboard/internal/api"
	"resource-dashboard/internal/session"
	"resource-dashboard/internal/store"
)

func main() {
	configureLogging()

	sessionCfg := session.Config{}
	if interval := os.Getenv("REFRESH_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			sessionCfg.RefreshInterval = d
		}
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			sessionCfg.TTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_NAME_LENGTH")); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			sessionCfg.MaxNameLength = val
		}
	}

	var origins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	cfg := api.Config{
		DBPath:         store.MemoryDSN,
		CatalogPath:    strings.TrimSpace(os.Getenv("DASHBOARD_CATALOG_PATH")),
		AllowedOrigins: origins,
		SilentDB:       !strings.EqualFold(strings.TrimSpace(os.Getenv("SILENT_DB")), "false"),
		SecureCookie:   strings.EqualFold(strings.TrimSpace(os.Getenv("SECURE_COOKIE")), "true"),
		Session:        sessionCfg,
	}
	if override := strings.TrimSpace(os.Getenv("DASHBOARD_DB_PATH")); override != "" {
		cfg.DBPath = override
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go server.RunJanitor(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("shutdown http server")
		}
	}()

	logrus.Infof("starting resource dashboard on :%s", port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("server exited: %v", err)
	}
	logrus.Info("resource dashboard stopped")
}

func configureLogging() {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			logrus.WithError(err).Warnf("unknown LOG_LEVEL %q, using info", level)
			return
		}
		logrus.SetLevel(parsed)
	}
}
