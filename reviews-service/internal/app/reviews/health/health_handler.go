package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"stagereviews/pkg/logger"
	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultAuditLimit = 20
	maxAuditLimit     = 200
)

// Check - проверка одной зависимости воркера
type Check func(ctx context.Context) error

// AuditLister отдает последние записи журнала сверок
type AuditLister interface {
	RecentAudits(ctx context.Context, limit int64) ([]entity.AggregateAudit, error)
}

type HealthCheckHandler struct {
	critical map[string]Check // Без них воркер не готов
	optional map[string]Check // Деградация, но не отказ
	audits   AuditLister
}

func NewHealthCheckHandler(critical, optional map[string]Check, audits AuditLister) *HealthCheckHandler {
	if critical == nil {
		critical = map[string]Check{}
	}
	if optional == nil {
		optional = map[string]Check{}
	}
	return &HealthCheckHandler{
		critical: critical,
		optional: optional,
		audits:   audits,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

type AuditsResponse struct {
	Audits []entity.AggregateAudit `json:"audits"`
	Total  int                     `json:"total"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.critical)+len(h.optional))
	overallStatus := "healthy"

	for name, check := range h.critical {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[name] = "healthy"
		}
	}

	for name, check := range h.optional {
		if err := check(ctx); err != nil {
			checks[name] = "warning: " + err.Error()
		} else {
			checks[name] = "healthy"
		}
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: time.Now(),
	})
}

func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Порядок проверок стабилен, чтобы ответ был предсказуем
	names := make([]string, 0, len(h.critical))
	for name := range h.critical {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.critical[name](ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

// RecentAudits - последние расхождения агрегатов, ?limit=N
func (h *HealthCheckHandler) RecentAudits(w http.ResponseWriter, r *http.Request) {
	if h.audits == nil {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}

	limit := int64(defaultAuditLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAuditLimit)
	}

	audits, err := h.audits.RecentAudits(r.Context(), limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list aggregate audits")
		http.Error(w, "failed to list audits", http.StatusInternalServerError)
		return
	}

	if audits == nil {
		audits = []entity.AggregateAudit{}
	}

	writeJSON(w, http.StatusOK, AuditsResponse{Audits: audits, Total: len(audits)})
}

// Router собирает health-сервер воркера
func (h *HealthCheckHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Get("/health/readiness", h.Readiness)
	r.Get("/health/liveness", h.Liveness)
	r.Get("/audits", h.RecentAudits)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}
