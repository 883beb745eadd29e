package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kitchen-scheduler/internal/domain"
)

// rushPriority is the restaurant priority at or above which an order is a rush.
const rushPriority = 10

var ErrUnmappedStatus = errors.New("unmapped order status")

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type SnapshotFilter struct {
	ActiveOnly   bool
	CreatedSince time.Time
	Limit        int
}

// Orders is a read-only source of order snapshots.
type Orders interface {
	Snapshot(ctx context.Context, f SnapshotFilter) ([]domain.Order, error)
}

type OrdersPG struct{ db Querier }

func NewOrdersPG(db Querier) *OrdersPG { return &OrdersPG{db: db} }

const snapshotSQL = `
SELECT o.id, o.order_number, o.status, o.created_at, o.total_amount, o.priority, COALESCE(o.customer_name, ''),
       oi.name, oi.quantity, oi.price
FROM (
    SELECT id, order_number, status, created_at, total_amount, priority, customer_name
    FROM orders
    WHERE ($1::boolean = false OR status IN ('received', 'cooking'))
      AND ($2::timestamptz IS NULL OR created_at >= $2)
    ORDER BY created_at, id
    LIMIT $3
) o
LEFT JOIN order_items oi ON oi.order_id = o.id
ORDER BY o.created_at, o.id, oi.id`

// Snapshot reads orders with their items, oldest first.
func (r *OrdersPG) Snapshot(ctx context.Context, f SnapshotFilter) ([]domain.Order, error) {
	var since *time.Time
	if !f.CreatedSince.IsZero() {
		since = &f.CreatedSince
	}
	var limit *int
	if f.Limit > 0 {
		limit = &f.Limit
	}

	rows, err := r.db.Query(ctx, snapshotSQL, f.ActiveOnly, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders snapshot: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		index  = map[int64]int{}
	)
	for rows.Next() {
		var (
			id        int64
			number    string
			status    string
			createdAt time.Time
			total     float64
			priority  int
			customer  string
			itemName  *string
			itemQty   *int
			itemPrice *float64
		)
		if err := rows.Scan(&id, &number, &status, &createdAt, &total, &priority, &customer,
			&itemName, &itemQty, &itemPrice); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		pos, seen := index[id]
		if !seen {
			st, err := MapStatus(status)
			if err != nil {
				return nil, fmt.Errorf("order %s: %w", number, err)
			}
			o := domain.Order{
				ID:        number,
				Status:    st,
				CreatedAt: createdAt,
				Items:     []domain.Item{},
				Total:     total,
			}
			if customer != "" {
				o.Customer = &domain.Customer{Name: customer}
			}
			if priority >= rushPriority {
				o.Priority = domain.PriorityRush
			}
			orders = append(orders, o)
			pos = len(orders) - 1
			index[id] = pos
		}

		if itemName != nil {
			it := domain.Item{Name: *itemName}
			if itemQty != nil {
				it.Quantity = *itemQty
			}
			if itemPrice != nil {
				it.Price = *itemPrice
			}
			orders[pos].Items = append(orders[pos].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Ping checks the store is reachable.
func (r *OrdersPG) Ping(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("ping orders store: %w", err)
	}
	return nil
}

// MapStatus translates restaurant lifecycle statuses into scheduler statuses.
func MapStatus(s string) (domain.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "received", "pending":
		return domain.StatusPending, nil
	case "cooking", "processing":
		return domain.StatusProcessing, nil
	case "ready", "completed":
		return domain.StatusCompleted, nil
	case "picked_up", "delivered":
		return domain.StatusPickedUp, nil
	case "cancelled", "canceled":
		return domain.StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnmappedStatus, s)
}
