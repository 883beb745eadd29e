package scheduler

import (
	"time"

	"github.com/facebookgo/clock"

	"kitchen-scheduler/internal/domain"
)

// Scheduler ranks and times the orders of one snapshot. Preparation
// estimates are memoised per order id for the life of the instance and are
// never invalidated: build a new Scheduler for every fresh snapshot, and do
// not share one across goroutines.
type Scheduler struct {
	orders           []domain.Order
	cfg              Config
	clock            clock.Clock
	loc              *time.Location
	preparationTimes map[string]float64
}

type Option func(*options)

type options struct {
	overrides *Config
	clock     clock.Clock
	loc       *time.Location
}

// WithConfig merges overrides over DefaultConfig.
func WithConfig(overrides Config) Option {
	return func(o *options) { o.overrides = &overrides }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLocation sets the zone in which busy-period hours are evaluated.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// New validates the snapshot and returns a scheduler over a private copy of it.
func New(orders []domain.Order, opts ...Option) (*Scheduler, error) {
	o := options{clock: clock.New(), loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := DefaultConfig()
	if o.overrides != nil {
		var err error
		if cfg, err = MergeConfig(*o.overrides); err != nil {
			return nil, err
		}
	}

	if err := validateOrders(orders); err != nil {
		return nil, err
	}

	snapshot := make([]domain.Order, len(orders))
	copy(snapshot, orders)

	return &Scheduler{
		orders:           snapshot,
		cfg:              cfg,
		clock:            o.clock,
		loc:              o.loc,
		preparationTimes: make(map[string]float64, len(orders)),
	}, nil
}

func validateOrders(orders []domain.Order) error {
	for i, o := range orders {
		switch {
		case o.ID == "":
			return invalidOrderData(i, o.ID, "missing id")
		case o.Status == "":
			return invalidOrderData(i, o.ID, "missing status")
		case !o.Status.Valid():
			return invalidOrderData(i, o.ID, "unknown status "+string(o.Status))
		case o.CreatedAt.IsZero():
			return invalidOrderData(i, o.ID, "missing createdAt")
		case o.Items == nil:
			return invalidOrderData(i, o.ID, "items must be a list")
		}
	}
	return nil
}

// Orders returns a copy of the snapshot in input order.
func (s *Scheduler) Orders() []domain.Order {
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Find looks an order up by id in the snapshot.
func (s *Scheduler) Find(id string) (domain.Order, bool) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (s *Scheduler) Config() Config { return s.cfg }

func (s *Scheduler) Now() time.Time { return s.clock.Now() }

func hoursSince(now, t time.Time) float64 {
	return now.Sub(t).Hours()
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
