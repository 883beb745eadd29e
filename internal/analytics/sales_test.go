package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-scheduler/internal/domain"
)

func sale(id string, status domain.Status, created time.Time, items ...domain.Item) domain.Order {
	return domain.Order{ID: id, Status: status, CreatedAt: created, Items: items}
}

func line(name string, qty int, price float64) domain.Item {
	return domain.Item{Name: name, Quantity: qty, Price: price}
}

func day(d, h int) time.Time { return time.Date(2026, time.March, d, h, 0, 0, 0, time.UTC) }

func TestBuildSalesReport_Day(t *testing.T) {
	orders := []domain.Order{
		sale("1", domain.StatusCompleted, day(10, 9), line("Pizza", 2, 12), line("Coffee", 1, 3)),
		sale("2", domain.StatusPickedUp, day(10, 12), line("Coffee", 3, 3.5), line("Salad", 1, 8)),
		sale("3", domain.StatusCancelled, day(10, 13), line("Pizza", 10, 12)),
		sale("4", domain.StatusCompleted, day(11, 0), line("Pizza", 5, 12)),
		sale("5", domain.StatusPending, day(9, 23), line("Salad", 7, 8)),
	}

	r, err := BuildSalesReport(orders, TimeframeDay, "2026-03-10", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 2, r.TotalOrders)
	assert.InDelta(t, 24+3+10.5+8, r.TotalRevenue, 1e-9)
	assert.Equal(t, day(10, 0), r.PeriodStart)
	assert.Equal(t, day(11, 0), r.PeriodEnd)

	require.Len(t, r.Items, 3)
	assert.Equal(t, ItemSales{Name: "Coffee", Quantity: 4, UnitPrice: 3, Revenue: 13.5, OrderCount: 2, AveragePerOrder: 2}, r.Items[0])
	assert.Equal(t, "Pizza", r.Items[1].Name)
	assert.Equal(t, "Salad", r.Items[2].Name)
	assert.Equal(t, r.Items, r.TopPerformers)
}

func TestBuildSalesReport_MonthAndTopFive(t *testing.T) {
	var orders []domain.Order
	for i := 1; i <= 7; i++ {
		orders = append(orders, sale(fmt.Sprint(i), domain.StatusCompleted, day(i, 10),
			line(fmt.Sprintf("item-%d", i), i, 1)))
	}
	orders = append(orders, sale("april", domain.StatusCompleted,
		time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), line("item-9", 99, 1)))

	r, err := BuildSalesReport(orders, TimeframeMonth, "2026-03", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 7, r.TotalOrders)
	require.Len(t, r.Items, 7)
	require.Len(t, r.TopPerformers, 5)
	assert.Equal(t, "item-7", r.TopPerformers[0].Name)
	assert.Equal(t, "item-3", r.TopPerformers[4].Name)
}

func TestBuildSalesReport_TiesKeepFirstSeenOrder(t *testing.T) {
	orders := []domain.Order{
		sale("1", domain.StatusCompleted, day(10, 9), line("B", 1, 1), line("A", 1, 1)),
		sale("2", domain.StatusCompleted, day(10, 10), line("C", 1, 1)),
	}
	r, err := BuildSalesReport(orders, TimeframeDay, "2026-03-10", time.UTC)
	require.NoError(t, err)

	var names []string
	for _, it := range r.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"B", "A", "C"}, names)
}

func TestBuildSalesReport_UsesLocation(t *testing.T) {
	minus5 := time.FixedZone("UTC-5", -5*60*60)
	orders := []domain.Order{sale("1", domain.StatusCompleted, day(10, 2), line("Pizza", 1, 12))}

	_, err := BuildSalesReport(orders, TimeframeDay, "2026-03-10", minus5)
	assert.ErrorIs(t, err, ErrNoSalesData, "02:00 UTC is still the 9th in UTC-5")

	r, err := BuildSalesReport(orders, TimeframeDay, "2026-03-09", minus5)
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalOrders)
}

func TestBuildSalesReport_OnlyCancelled(t *testing.T) {
	orders := []domain.Order{sale("1", domain.StatusCancelled, day(10, 9), line("Pizza", 1, 12))}

	r, err := BuildSalesReport(orders, TimeframeDay, "2026-03-10", time.UTC)
	require.NoError(t, err)
	assert.Zero(t, r.TotalOrders)
	assert.Empty(t, r.Items)
	assert.NotNil(t, r.TopPerformers)
}

func TestBuildSalesReport_Errors(t *testing.T) {
	_, err := BuildSalesReport(nil, TimeframeDay, "2026-03-10", time.UTC)
	assert.ErrorIs(t, err, ErrNoSalesData)

	_, err = BuildSalesReport(nil, "week", "2026-03-10", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTimeframe)

	_, err = BuildSalesReport(nil, TimeframeMonth, "2026-03-10", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = BuildSalesReport(nil, TimeframeDay, "10/03/2026", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
