package scheduler

import (
	"fmt"
	"math"
	"time"

	"kitchen-scheduler/internal/domain"
)

type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"

	highSeverityHours = 2
	orderRefLength    = 6
)

type DelayedOrder struct {
	Order              domain.Order `json:"order"`
	HoursSinceCreation float64      `json:"hoursSinceCreation"`
	Severity           Severity     `json:"severity"`
	EstimatedDelay     float64      `json:"estimatedDelay"` // minutes until the order is expected ready
}

type DelayNotification struct {
	OrderID            string    `json:"orderId"`
	Message            string    `json:"message"`
	Severity           Severity  `json:"severity"`
	Timestamp          time.Time `json:"timestamp"`
	EstimatedDelay     float64   `json:"estimatedDelay"`
	HoursSinceCreation float64   `json:"hoursSinceCreation"`
}

// DetectPotentialDelays flags pending and processing orders that have
// waited past their threshold. The result keeps snapshot order.
func (s *Scheduler) DetectPotentialDelays() ([]DelayedOrder, error) {
	now := s.clock.Now()
	th := s.cfg.TimeThresholds

	var delayed []DelayedOrder
	for _, o := range s.orders {
		hours := hoursSince(now, o.CreatedAt)
		late := (o.Status == domain.StatusPending && hours > th.PendingDelayHours) ||
			(o.Status == domain.StatusProcessing && hours > th.ProcessingDelayHours)
		if !late {
			continue
		}

		window, err := s.pickupWindow(o, now)
		if err != nil {
			return nil, orderError(CodeDelayDetection, "error detecting delays", o.ID, err)
		}

		severity := SeverityMedium
		if hours > highSeverityHours {
			severity = SeverityHigh
		}
		delayed = append(delayed, DelayedOrder{
			Order:              o,
			HoursSinceCreation: hours,
			Severity:           severity,
			EstimatedDelay:     math.Max(0, window.EstimatedReadyTime.Sub(now).Minutes()),
		})
	}
	return delayed, nil
}

// DelayNotifications detects delays and formats them with the scheduler clock.
func (s *Scheduler) DelayNotifications() ([]DelayNotification, error) {
	delayed, err := s.DetectPotentialDelays()
	if err != nil {
		return nil, err
	}
	return GenerateDelayNotifications(delayed, s.clock.Now()), nil
}

// GenerateDelayNotifications renders one staff-facing message per delayed order.
func GenerateDelayNotifications(delayed []DelayedOrder, now time.Time) []DelayNotification {
	out := make([]DelayNotification, 0, len(delayed))
	for _, d := range delayed {
		msg := fmt.Sprintf("Order #%s is experiencing delays (%d minutes old)",
			shortRef(d.Order.ID), roundHalfUp(d.HoursSinceCreation*60))
		if d.EstimatedDelay > 0 {
			msg += fmt.Sprintf(". Estimated additional delay: %d minutes", roundHalfUp(d.EstimatedDelay))
		}
		if d.Severity == SeverityHigh {
			msg += " - Immediate attention required!"
		} else {
			msg += " - Please prioritize"
		}

		out = append(out, DelayNotification{
			OrderID:            d.Order.ID,
			Message:            msg,
			Severity:           d.Severity,
			Timestamp:          now,
			EstimatedDelay:     d.EstimatedDelay,
			HoursSinceCreation: d.HoursSinceCreation,
		})
	}
	return out
}

func shortRef(id string) string {
	r := []rune(id)
	if len(r) <= orderRefLength {
		return id
	}
	return string(r[len(r)-orderRefLength:])
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
