package domain

import "time"

const (
	AlertTypeDelay    = "kitchen.delay"
	AlertTypeWorkload = "kitchen.workload"
)

// AlertEnvelope is the body published to the kitchen alerts exchange.
// Exactly one of Delay or Workload is set, matching Type.
type AlertEnvelope struct {
	Type     string         `json:"type"`
	ShopID   string         `json:"shop_id,omitempty"`
	SentAt   time.Time      `json:"sent_at"`
	Delay    *DelayAlert    `json:"delay,omitempty"`
	Workload *WorkloadAlert `json:"workload,omitempty"`
}

type DelayAlert struct {
	OrderID            string    `json:"order_id"`
	Message            string    `json:"message"`
	Severity           string    `json:"severity"`
	EstimatedDelay     float64   `json:"estimated_delay_minutes"`
	HoursSinceCreation float64   `json:"hours_since_creation"`
	DetectedAt         time.Time `json:"detected_at"`
}

type WorkloadAlert struct {
	Level              string   `json:"level"`
	ActiveOrderCount   int      `json:"active_order_count"`
	TotalItems         int      `json:"total_items"`
	ComplexityScore    float64  `json:"complexity_score"`
	WorkloadScore      float64  `json:"workload_score"`
	RecommendedActions []string `json:"recommended_actions"`
}
