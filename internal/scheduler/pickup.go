package scheduler

import (
	"time"

	"kitchen-scheduler/internal/domain"
)

type PickupWindow struct {
	EstimatedReadyTime time.Time `json:"estimatedReadyTime"`
	LatestPickupTime   time.Time `json:"latestPickupTime"`
	PreparationTime    float64   `json:"preparationTime"`
	BufferApplied      int       `json:"bufferApplied"`
}

// CalculatePickupWindow projects when the order will be ready and how long it
// can wait for collection. Ready times landing in a busy period are pushed
// back by that period's buffer; both ends of the window move together.
func (s *Scheduler) CalculatePickupWindow(order domain.Order) (PickupWindow, error) {
	return s.pickupWindow(order, s.clock.Now())
}

func (s *Scheduler) pickupWindow(order domain.Order, now time.Time) (PickupWindow, error) {
	prep, err := s.EstimatePreparationTime(order)
	if err != nil {
		return PickupWindow{}, orderError(CodePickupWindow, "error calculating pickup window", order.ID, err)
	}

	ready := now.Add(minutes(prep))
	latest := ready.Add(minutes(s.cfg.TimeThresholds.PickupWindowMinutes))

	buffer := s.cfg.busyBuffer(ready.In(s.loc).Hour())
	if buffer > 0 {
		ready = ready.Add(time.Duration(buffer) * time.Minute)
		latest = latest.Add(time.Duration(buffer) * time.Minute)
	}

	return PickupWindow{
		EstimatedReadyTime: ready,
		LatestPickupTime:   latest,
		PreparationTime:    prep,
		BufferApplied:      buffer,
	}, nil
}
