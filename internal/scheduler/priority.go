package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"kitchen-scheduler/internal/domain"
)

const (
	vipMultiplier              = 1.5
	specialInstructionsPenalty = 2
)

// RankedOrder pairs an order with the score it was ranked by.
type RankedOrder struct {
	Order domain.Order `json:"order"`
	Score float64      `json:"score"`
}

// PriorityScore rates how urgently the kitchen should pick up the order.
// Higher is more urgent.
func (s *Scheduler) PriorityScore(order domain.Order) (float64, error) {
	return s.priorityScore(order, s.clock.Now())
}

func (s *Scheduler) priorityScore(order domain.Order, now time.Time) (float64, error) {
	if err := checkScorable(order); err != nil {
		return 0, orderError(CodePriorityCalculation, "error calculating priority score", order.ID, err)
	}
	w := s.cfg.PriorityWeights

	score := hoursSince(now, order.CreatedAt) * w.TimeFactor
	score += w.StatusWeights[order.Status]
	score += order.Total * w.TotalAmountFactor
	score += float64(order.ItemCount()) * w.ItemCountFactor

	if order.IsVIP() {
		score *= vipMultiplier
	}
	if order.HasSpecialInstructions() {
		score -= specialInstructionsPenalty
	}
	return score, nil
}

// RankOrders scores every order against a single clock reading and sorts
// them by descending score. Equal scores keep their snapshot order.
func (s *Scheduler) RankOrders() ([]RankedOrder, error) {
	now := s.clock.Now()
	ranked := make([]RankedOrder, 0, len(s.orders))
	for _, o := range s.orders {
		score, err := s.priorityScore(o, now)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedOrder{Order: o, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// PrioritizeOrders returns a new slice of the snapshot, most urgent first.
func (s *Scheduler) PrioritizeOrders() ([]domain.Order, error) {
	ranked, err := s.RankOrders()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, len(ranked))
	for i, r := range ranked {
		out[i] = r.Order
	}
	return out, nil
}

func checkScorable(order domain.Order) error {
	if !order.Status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, string(order.Status))
	}
	if math.IsNaN(order.Total) || math.IsInf(order.Total, 0) {
		return errors.New("total is not a finite number")
	}
	return checkItems(order)
}

func checkItems(order domain.Order) error {
	for i, it := range order.Items {
		if it.Quantity < 0 {
			return fmt.Errorf("item %d (%s) has negative quantity %d", i, it.Key(), it.Quantity)
		}
	}
	return nil
}
