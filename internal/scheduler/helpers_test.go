package scheduler

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/require"

	"kitchen-scheduler/internal/domain"
)

var baseTime = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func clockAt(t time.Time) *clock.Mock {
	c := clock.NewMock()
	c.Add(t.Sub(c.Now()))
	return c
}

func newTestScheduler(t *testing.T, now time.Time, orders []domain.Order, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{WithClock(clockAt(now)), WithLocation(time.UTC)}, opts...)
	s, err := New(orders, opts...)
	require.NoError(t, err)
	return s
}

func order(id string, status domain.Status, age time.Duration, items ...domain.Item) domain.Order {
	if items == nil {
		items = []domain.Item{}
	}
	return domain.Order{
		ID:        id,
		Status:    status,
		CreatedAt: baseTime.Add(-age),
		Items:     items,
	}
}

func item(kind string, qty int) domain.Item {
	return domain.Item{Type: kind, Quantity: qty, Price: 10}
}

func ids(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
