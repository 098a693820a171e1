package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/handlewatch/internal/domain"
	apimw "github.com/hamed0406/handlewatch/internal/httpapi/middleware"
	"github.com/hamed0406/handlewatch/internal/notify"
	"github.com/hamed0406/handlewatch/internal/repo"
	"github.com/hamed0406/handlewatch/internal/scheduler"
)

// Server exposes the monitor's latest snapshot and its history, read-only
// apart from the admin test-notification route.
type Server struct {
	Logger   *zap.Logger
	Target   string
	Board    *scheduler.Board
	Checks   repo.CheckStore
	Notices  repo.NotificationStore
	Notifier notify.Notifier // optional
	MaxLimit int
}

func NewServer(l *zap.Logger, target string, b *scheduler.Board, store repo.Store, n notify.Notifier) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Target: target, Board: b, Checks: store, Notices: store, Notifier: n, MaxLimit: 500}
}

// Router builds the chi router. An empty origins list allows any origin.
func (s *Server) Router(keys apimw.Keys, origins []string, reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}
	r.Use(apimw.RateLimit(reqPerMin, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/checks", s.handleChecks)
		r.Get("/api/notifications", s.handleNotifications)
	})
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/notify/test", s.handleTestNotify)
	})
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := scheduler.Snapshot{Target: s.Target}
	if s.Board != nil {
		snap = s.Board.Get()
		if snap.Target == "" {
			snap.Target = s.Target
		}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	out, err := s.Checks.RecentChecks(r.Context(), repo.ClampLimit(limit, s.MaxLimit))
	if err != nil {
		s.Logger.Error("list_checks_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if out == nil {
		out = []domain.CheckRecord{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	out, err := s.Notices.RecentNotifications(r.Context(), repo.ClampLimit(limit, s.MaxLimit))
	if err != nil {
		s.Logger.Error("list_notifications_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if out == nil {
		out = []domain.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTestNotify sends one message through every configured channel so
// the operator can confirm delivery works before it matters.
func (s *Server) handleTestNotify(w http.ResponseWriter, r *http.Request) {
	if s.Notifier == nil {
		writeError(w, http.StatusServiceUnavailable, "no notification channel configured")
		return
	}
	subject := fmt.Sprintf("Test notification for @%s", s.Target)
	rec := &domain.NotificationRecord{
		ID:      uuid.NewString(),
		Target:  s.Target,
		Kind:    domain.NotifyTest,
		Subject: subject,
		SentAt:  time.Now().UTC(),
	}
	err := s.Notifier.Send(r.Context(), subject, "Hi,\n\nThis is a test from handlewatch. Delivery works.\n")
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Sent = true
	}
	if s.Notices != nil {
		if aerr := s.Notices.AppendNotification(r.Context(), rec); aerr != nil {
			s.Logger.Warn("record_notification_failed", zap.Error(aerr))
		}
	}
	if err != nil {
		s.Logger.Error("test_notify_failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "send failed")
		return
	}
	s.Logger.Info("test_notify_sent", zap.String("subject", subject))
	writeJSON(w, http.StatusOK, rec)
}

// parseLimit reads ?limit=; missing means the store default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
