package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kitchen-scheduler/internal/common/logger"
	"kitchen-scheduler/internal/common/metrics"
	"kitchen-scheduler/internal/domain"
)

type mockAck struct{ mock.Mock }

func (m *mockAck) Ack(multiple bool) error { return m.Called(multiple).Error(0) }

func (m *mockAck) Nack(multiple, requeue bool) error { return m.Called(multiple, requeue).Error(0) }

func newSubscriber(buf *bytes.Buffer) (*Subscriber, *metrics.Metrics) {
	lg := logger.New("notification-subscriber")
	lg.SetOutput(buf)
	m := metrics.New("notification-subscriber")
	return NewSubscriber(lg, m), m
}

func delayBody(t *testing.T, severity string) []byte {
	t.Helper()
	b, err := json.Marshal(domain.AlertEnvelope{
		Type:   domain.AlertTypeDelay,
		SentAt: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		Delay: &domain.DelayAlert{
			OrderID:  "abc123",
			Message:  "Order #abc123 is experiencing delays (90 minutes old) - Please prioritize",
			Severity: severity,
		},
	})
	require.NoError(t, err)
	return b
}

func TestHandle_AcksAndLogs(t *testing.T) {
	var buf bytes.Buffer
	s, m := newSubscriber(&buf)
	ack := new(mockAck)
	ack.On("Ack", false).Return(nil).Once()

	s.Handle(delayBody(t, "high"), "msg-1", ack)

	ack.AssertExpectations(t)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kitchen_alert_received", line["action"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "abc123", line["order_id"])
	assert.Equal(t, "msg-1", line["message_id"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsReceived.WithLabelValues(domain.AlertTypeDelay, "ok")))
}

func TestHandle_MediumIsInfo(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newSubscriber(&buf)
	ack := new(mockAck)
	ack.On("Ack", false).Return(nil)

	s.Handle(delayBody(t, "medium"), "msg-2", ack)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
}

func TestHandle_RejectsWithoutRequeue(t *testing.T) {
	for _, body := range []string{`not json`, `{"type":"kitchen.delay"}`, `{"type":"kitchen.unknown","delay":{}}`} {
		var buf bytes.Buffer
		s, m := newSubscriber(&buf)
		ack := new(mockAck)
		ack.On("Nack", false, false).Return(nil).Once()

		s.Handle([]byte(body), "bad", ack)

		ack.AssertExpectations(t)
		ack.AssertNotCalled(t, "Ack", mock.Anything)
		assert.Contains(t, buf.String(), "kitchen_alert_rejected")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsReceived.WithLabelValues("unknown", "rejected")))
	}
}

func TestDecodeAlert_Workload(t *testing.T) {
	env, err := DecodeAlert([]byte(`{"type":"kitchen.workload","workload":{"level":"critical","workload_score":390,"recommended_actions":["Call in additional staff if available"]}}`))
	require.NoError(t, err)
	assert.Equal(t, "critical", env.Workload.Level)
	assert.Equal(t, 390.0, env.Workload.WorkloadScore)
}

func TestRun_StopsOnCancelAndClose(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newSubscriber(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx, make(chan amqp.Delivery)))

	closed := make(chan amqp.Delivery)
	close(closed)
	assert.Error(t, s.Run(context.Background(), closed))
}
