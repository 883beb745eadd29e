package kitchen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookgo/clock"

	"kitchen-scheduler/internal/common/logger"
	"kitchen-scheduler/internal/common/metrics"
	"kitchen-scheduler/internal/common/mq"
	"kitchen-scheduler/internal/domain"
	"kitchen-scheduler/internal/repository"
	"kitchen-scheduler/internal/scheduler"
)

type SnapshotSource interface {
	Snapshot(ctx context.Context, f repository.SnapshotFilter) ([]domain.Order, error)
}

// Publisher is satisfied by *mq.Client.
type Publisher interface {
	PublishJSON(ctx context.Context, exchange, key string, v any) (string, error)
}

type Config struct {
	Interval         time.Duration
	Lookback         time.Duration
	ShopID           string
	SchedulerOptions []scheduler.Option
}

// Monitor periodically sweeps the active orders and raises alerts for the
// delayed ones and for an overloaded kitchen.
type Monitor struct {
	src     SnapshotSource
	pub     Publisher
	lg      *logger.Logger
	metrics *metrics.Metrics
	clock   clock.Clock
	cfg     Config
}

func NewMonitor(src SnapshotSource, pub Publisher, lg *logger.Logger, m *metrics.Metrics, clk clock.Clock, cfg Config) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{src: src, pub: pub, lg: lg, metrics: m, clock: clk, cfg: cfg}
}

type TickResult struct {
	Active        int
	Delayed       int
	AlertsSent    int
	WorkloadLevel scheduler.WorkloadLevel
}

// Run sweeps once immediately and then on every interval until ctx is done.
// A failed sweep is logged and does not stop the loop.
func (m *Monitor) Run(ctx context.Context) error {
	if m.cfg.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %s", m.cfg.Interval)
	}
	ticker := m.clock.Ticker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		m.sweep(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	res, err := m.Tick(ctx)
	if err != nil {
		m.lg.Error("monitor_tick_failed", err, nil)
		return
	}
	m.lg.Info("monitor_tick", map[string]any{
		"active_orders":  res.Active,
		"delayed_orders": res.Delayed,
		"alerts_sent":    res.AlertsSent,
		"workload_level": string(res.WorkloadLevel),
	})
}

// Tick runs one sweep over a fresh snapshot.
func (m *Monitor) Tick(ctx context.Context) (TickResult, error) {
	now := m.clock.Now()
	f := repository.SnapshotFilter{ActiveOnly: true}
	if m.cfg.Lookback > 0 {
		f.CreatedSince = now.Add(-m.cfg.Lookback)
	}
	orders, err := m.src.Snapshot(ctx, f)
	if err != nil {
		m.snapshotFailed()
		return TickResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	opts := append([]scheduler.Option{scheduler.WithClock(m.clock)}, m.cfg.SchedulerOptions...)
	s, err := scheduler.New(orders, opts...)
	if err != nil {
		m.snapshotFailed()
		return TickResult{}, fmt.Errorf("build scheduler: %w", err)
	}
	delayed, err := s.DetectPotentialDelays()
	if err != nil {
		return TickResult{}, err
	}
	notes := scheduler.GenerateDelayNotifications(delayed, now)
	summary := scheduler.AnalyzeKitchenWorkload(s.Orders())
	m.metrics.ObserveSweep(summary, delayed)

	res := TickResult{Active: summary.ActiveOrderCount, Delayed: len(delayed), WorkloadLevel: summary.WorkloadLevel}
	var errs []error
	for _, n := range notes {
		env := domain.AlertEnvelope{
			Type:   domain.AlertTypeDelay,
			ShopID: m.cfg.ShopID,
			SentAt: now,
			Delay: &domain.DelayAlert{
				OrderID:            n.OrderID,
				Message:            n.Message,
				Severity:           string(n.Severity),
				EstimatedDelay:     n.EstimatedDelay,
				HoursSinceCreation: n.HoursSinceCreation,
				DetectedAt:         n.Timestamp,
			},
		}
		if err := m.publish(ctx, env, "delay_alert_published", map[string]any{"order_id": n.OrderID, "severity": string(n.Severity)}); err != nil {
			errs = append(errs, err)
			continue
		}
		res.AlertsSent++
	}

	if summary.WorkloadLevel.NeedsAttention() {
		env := domain.AlertEnvelope{
			Type:   domain.AlertTypeWorkload,
			ShopID: m.cfg.ShopID,
			SentAt: now,
			Workload: &domain.WorkloadAlert{
				Level:              string(summary.WorkloadLevel),
				ActiveOrderCount:   summary.ActiveOrderCount,
				TotalItems:         summary.TotalItems,
				ComplexityScore:    summary.ComplexityScore,
				WorkloadScore:      summary.WorkloadScore,
				RecommendedActions: summary.RecommendedActions,
			},
		}
		if err := m.publish(ctx, env, "workload_alert_published", map[string]any{"level": string(summary.WorkloadLevel)}); err != nil {
			errs = append(errs, err)
		} else {
			res.AlertsSent++
		}
	}
	return res, errors.Join(errs...)
}

func (m *Monitor) publish(ctx context.Context, env domain.AlertEnvelope, action string, fields map[string]any) error {
	id, err := m.pub.PublishJSON(ctx, mq.AlertsExchange, "", env)
	if err != nil {
		m.countAlert(env.Type, "error")
		return fmt.Errorf("publish %s: %w", env.Type, err)
	}
	m.countAlert(env.Type, "ok")
	fields["message_id"] = id
	m.lg.Info(action, fields)
	return nil
}

func (m *Monitor) countAlert(alertType, status string) {
	if m.metrics != nil {
		m.metrics.AlertsPublished.WithLabelValues(alertType, status).Inc()
	}
}

func (m *Monitor) snapshotFailed() {
	if m.metrics != nil {
		m.metrics.SnapshotFailures.Inc()
	}
}
