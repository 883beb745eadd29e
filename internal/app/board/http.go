package board

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/clock"

	"kitchen-scheduler/internal/analytics"
	"kitchen-scheduler/internal/common/httpx"
	"kitchen-scheduler/internal/common/logger"
	"kitchen-scheduler/internal/common/metrics"
	"kitchen-scheduler/internal/domain"
	"kitchen-scheduler/internal/repository"
	"kitchen-scheduler/internal/scheduler"
)

const (
	problemStorage  = "STORAGE_ERROR"
	problemNotFound = "NOT_FOUND"
	problemBadQuery = "INVALID_QUERY"
)

// SnapshotSource supplies fresh order snapshots; repository.OrdersPG is the
// production implementation.
type SnapshotSource interface {
	Snapshot(ctx context.Context, f repository.SnapshotFilter) ([]domain.Order, error)
}

type Config struct {
	Port int
	// Lookback bounds the age of orders loaded for the live board.
	Lookback         time.Duration
	Location         *time.Location
	SchedulerOptions []scheduler.Option
}

type Handler struct {
	src     SnapshotSource
	lg      *logger.Logger
	metrics *metrics.Metrics
	clock   clock.Clock
	cfg     Config
}

func NewHandler(src SnapshotSource, lg *logger.Logger, m *metrics.Metrics, clk clock.Clock, cfg Config) *Handler {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Handler{src: src, lg: lg, metrics: m, clock: clk, cfg: cfg}
}

func Run(ctx context.Context, h *Handler) error {
	srv := httpx.New(":"+strconv.Itoa(h.cfg.Port), h.Routes())
	return srv.Run(ctx)
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/kitchen/queue", h.queue)
	mux.HandleFunc("GET /api/v1/kitchen/delays", h.delays)
	mux.HandleFunc("GET /api/v1/kitchen/notifications", h.notifications)
	mux.HandleFunc("GET /api/v1/kitchen/workload", h.workload)
	mux.HandleFunc("GET /api/v1/kitchen/orders/{order_id}/pickup", h.pickup)
	mux.HandleFunc("GET /api/v1/kitchen/sales", h.sales)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return h.instrument(mux)
}

// QueueEntry is one row of the ranked kitchen queue.
type QueueEntry struct {
	OrderID            string                 `json:"orderId"`
	Status             domain.Status          `json:"status"`
	CustomerName       string                 `json:"customerName,omitempty"`
	ItemCount          int                    `json:"itemCount"`
	Score              float64                `json:"score"`
	PreparationMinutes float64                `json:"preparationMinutes"`
	Pickup             scheduler.PickupWindow `json:"pickup"`
}

type DelayReport struct {
	Count  int                      `json:"count"`
	Orders []scheduler.DelayedOrder `json:"orders"`
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	var statusFilter domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			httpx.WriteProblem(w, http.StatusBadRequest, problemBadQuery, err.Error())
			return
		}
		statusFilter = st
	}
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	s, ok := h.scheduler(w, r)
	if !ok {
		return
	}
	ranked, err := s.RankOrders()
	if err != nil {
		h.fail(w, "queue_failed", err)
		return
	}

	entries := make([]QueueEntry, 0, len(ranked))
	for _, ro := range ranked {
		o := ro.Order
		if statusFilter != "" && o.Status != statusFilter {
			continue
		}
		if search != "" && !matches(o, search) {
			continue
		}
		window, err := s.CalculatePickupWindow(o)
		if err != nil {
			h.fail(w, "queue_failed", err)
			return
		}
		h.metrics.ObservePrepEstimate(window.PreparationTime)
		entries = append(entries, QueueEntry{
			OrderID:            o.ID,
			Status:             o.Status,
			CustomerName:       o.CustomerName(),
			ItemCount:          o.ItemCount(),
			Score:              ro.Score,
			PreparationMinutes: window.PreparationTime,
			Pickup:             window,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func matches(o domain.Order, search string) bool {
	return strings.Contains(strings.ToLower(o.ID), search) ||
		strings.Contains(strings.ToLower(o.CustomerName()), search)
}

func (h *Handler) delays(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scheduler(w, r)
	if !ok {
		return
	}
	delayed, err := s.DetectPotentialDelays()
	if err != nil {
		h.fail(w, "delays_failed", err)
		return
	}
	if delayed == nil {
		delayed = []scheduler.DelayedOrder{}
	}
	httpx.WriteJSON(w, http.StatusOK, DelayReport{Count: len(delayed), Orders: delayed})
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scheduler(w, r)
	if !ok {
		return
	}
	notes, err := s.DelayNotifications()
	if err != nil {
		h.fail(w, "notifications_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, notes)
}

func (h *Handler) workload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scheduler(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scheduler.AnalyzeKitchenWorkload(s.Orders()))
}

func (h *Handler) pickup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("order_id")
	s, ok := h.scheduler(w, r)
	if !ok {
		return
	}
	o, found := s.Find(id)
	if !found {
		httpx.WriteProblem(w, http.StatusNotFound, problemNotFound, "order "+id+" is not in the current snapshot")
		return
	}
	window, err := s.CalculatePickupWindow(o)
	if err != nil {
		h.fail(w, "pickup_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, window)
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	tf := analytics.Timeframe(r.URL.Query().Get("timeframe"))
	if tf == "" {
		tf = analytics.TimeframeDay
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		layout := "2006-01-02"
		if tf == analytics.TimeframeMonth {
			layout = "2006-01"
		}
		date = h.clock.Now().In(h.cfg.Location).Format(layout)
	}

	start, end, err := analytics.ParsePeriod(tf, date, h.cfg.Location)
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, problemBadQuery, err.Error())
		return
	}
	orders, err := h.src.Snapshot(r.Context(), repository.SnapshotFilter{CreatedSince: start})
	if err != nil {
		h.fail(w, "sales_snapshot_failed", err)
		return
	}
	report, err := analytics.BuildSalesReport(orders, tf, date, h.cfg.Location)
	if err != nil {
		h.fail(w, "sales_report_failed", err)
		return
	}
	h.lg.Debug("sales_report_built", map[string]any{"timeframe": string(tf), "from": start, "to": end, "orders": report.TotalOrders})
	httpx.WriteJSON(w, http.StatusOK, report)
}

// scheduler loads a fresh snapshot and builds a scheduler over it. On failure
// the response has already been written.
func (h *Handler) scheduler(w http.ResponseWriter, r *http.Request) (*scheduler.Scheduler, bool) {
	f := repository.SnapshotFilter{}
	if h.cfg.Lookback > 0 {
		f.CreatedSince = h.clock.Now().Add(-h.cfg.Lookback)
	}
	orders, err := h.src.Snapshot(r.Context(), f)
	if err != nil {
		h.fail(w, "snapshot_failed", err)
		return nil, false
	}

	opts := append([]scheduler.Option{scheduler.WithClock(h.clock), scheduler.WithLocation(h.cfg.Location)},
		h.cfg.SchedulerOptions...)
	s, err := scheduler.New(orders, opts...)
	if err != nil {
		h.fail(w, "snapshot_rejected", err)
		return nil, false
	}
	return s, true
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	var se *scheduler.Error
	switch {
	case errors.As(err, &se):
		h.lg.Warn(action, map[string]any{"code": se.Code, "details": se.Details, "reason": err.Error()})
		httpx.WriteProblem(w, http.StatusUnprocessableEntity, se.Code, err.Error())
	case errors.Is(err, analytics.ErrNoSalesData):
		httpx.WriteProblem(w, http.StatusNotFound, problemNotFound, err.Error())
	case errors.Is(err, analytics.ErrInvalidDate), errors.Is(err, analytics.ErrInvalidTimeframe):
		httpx.WriteProblem(w, http.StatusBadRequest, problemBadQuery, err.Error())
	default:
		h.lg.Error(action, err, nil)
		if h.metrics != nil {
			h.metrics.SnapshotFailures.Inc()
		}
		httpx.WriteProblem(w, http.StatusInternalServerError, problemStorage, "order snapshot unavailable")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := h.clock.Now()
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		if h.metrics != nil {
			h.metrics.HTTPRequests.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		}
		h.lg.Debug("http_request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": h.clock.Now().Sub(start).Milliseconds(),
		})
	})
}
