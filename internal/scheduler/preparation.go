package scheduler

import (
	"math"

	"kitchen-scheduler/internal/domain"
)

const (
	minPreparationMinutes = 5

	specialInstructionsFactor = 1.2
	rushFactor                = 0.8
	largeOrderFactor          = 1.1
	largeOrderItems           = 5
	kitchenLoadStep           = 0.1
)

// EstimatePreparationTime returns the expected minutes to prepare the order,
// clamped to [5, MaxPreparationMinutes]. The first estimate for an order id is
// cached and returned unchanged for the rest of the scheduler's life.
func (s *Scheduler) EstimatePreparationTime(order domain.Order) (float64, error) {
	if v, ok := s.preparationTimes[order.ID]; ok {
		return v, nil
	}
	if err := checkItems(order); err != nil {
		return 0, orderError(CodePreparationTime, "error estimating preparation time", order.ID, err)
	}

	var total float64
	for _, it := range order.Items {
		// log2 keeps bulk quantities from scaling linearly.
		total += s.cfg.prepMinutes(it.Key()) * math.Log2(float64(it.Units())+1)
	}

	if order.HasSpecialInstructions() {
		total *= specialInstructionsFactor
	}
	if order.IsRush() {
		total *= rushFactor
	}
	if order.ItemCount() > largeOrderItems {
		total *= largeOrderFactor
	}
	if busy := s.concurrentProcessing(order.ID); busy > 0 {
		total *= 1 + kitchenLoadStep*float64(busy)
	}

	final := math.Min(math.Max(total, minPreparationMinutes), s.cfg.TimeThresholds.MaxPreparationMinutes)
	s.preparationTimes[order.ID] = final
	return final, nil
}

func (s *Scheduler) concurrentProcessing(exceptID string) int {
	n := 0
	for _, o := range s.orders {
		if o.Status == domain.StatusProcessing && o.ID != exceptID {
			n++
		}
	}
	return n
}
