package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen-scheduler/internal/common/logger"
	"kitchen-scheduler/internal/common/metrics"
	"kitchen-scheduler/internal/domain"
)

var ErrBadAlert = errors.New("malformed kitchen alert")

// Acknowledger settles one delivery. amqp.Delivery implements it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Subscriber struct {
	lg      *logger.Logger
	metrics *metrics.Metrics
}

func NewSubscriber(lg *logger.Logger, m *metrics.Metrics) *Subscriber {
	return &Subscriber{lg: lg, metrics: m}
}

// Run handles deliveries until ctx is done or the channel closes.
func (s *Subscriber) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("alert delivery channel closed")
			}
			s.Handle(d.Body, d.MessageId, &d)
		}
	}
}

// Handle logs one alert. Undecodable messages are dropped without requeue.
func (s *Subscriber) Handle(body []byte, messageID string, ack Acknowledger) {
	env, err := DecodeAlert(body)
	if err != nil {
		s.lg.Error("kitchen_alert_rejected", err, map[string]any{"message_id": messageID})
		s.count("unknown", "rejected")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			s.lg.Error("kitchen_alert_nack_failed", nackErr, map[string]any{"message_id": messageID})
		}
		return
	}

	fields := map[string]any{"message_id": messageID, "type": env.Type, "shop_id": env.ShopID, "sent_at": env.SentAt}
	switch env.Type {
	case domain.AlertTypeDelay:
		fields["order_id"] = env.Delay.OrderID
		fields["severity"] = env.Delay.Severity
		fields["message"] = env.Delay.Message
		fields["estimated_delay_minutes"] = env.Delay.EstimatedDelay
	case domain.AlertTypeWorkload:
		fields["severity"] = env.Workload.Level
		fields["workload_score"] = env.Workload.WorkloadScore
		fields["recommended_actions"] = env.Workload.RecommendedActions
	}
	if fields["severity"] == "high" || fields["severity"] == "critical" {
		s.lg.Warn("kitchen_alert_received", fields)
	} else {
		s.lg.Info("kitchen_alert_received", fields)
	}
	s.count(env.Type, "ok")

	if err := ack.Ack(false); err != nil {
		s.lg.Error("kitchen_alert_ack_failed", err, map[string]any{"message_id": messageID})
	}
}

// DecodeAlert parses an alert envelope and checks its payload matches its type.
func DecodeAlert(body []byte) (domain.AlertEnvelope, error) {
	var env domain.AlertEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.AlertEnvelope{}, fmt.Errorf("%w: %v", ErrBadAlert, err)
	}
	switch {
	case env.Type == domain.AlertTypeDelay && env.Delay != nil:
	case env.Type == domain.AlertTypeWorkload && env.Workload != nil:
	default:
		return domain.AlertEnvelope{}, fmt.Errorf("%w: type %q without matching payload", ErrBadAlert, env.Type)
	}
	return env, nil
}

func (s *Subscriber) count(alertType, status string) {
	if s.metrics != nil {
		s.metrics.AlertsReceived.WithLabelValues(alertType, status).Inc()
	}
}
