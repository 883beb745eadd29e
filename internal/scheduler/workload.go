package scheduler

import "kitchen-scheduler/internal/domain"

type WorkloadLevel string

const (
	WorkloadNormal   WorkloadLevel = "normal"
	WorkloadModerate WorkloadLevel = "moderate"
	WorkloadHigh     WorkloadLevel = "high"
	WorkloadCritical WorkloadLevel = "critical"
)

var (
	criticalActions = []string{
		"Consider temporarily pausing new orders",
		"Call in additional staff if available",
		"Focus on completing simple orders first to reduce queue",
	}
	highActions = []string{
		"Prepare for potential staff reallocation",
		"Review and prioritize orders by complexity",
		"Consider extending estimated preparation times",
	}
)

type WorkloadSummary struct {
	ActiveOrderCount   int           `json:"activeOrderCount"`
	TotalItems         int           `json:"totalItems"`
	ComplexityScore    float64       `json:"complexityScore"`
	WorkloadScore      float64       `json:"workloadScore"`
	WorkloadLevel      WorkloadLevel `json:"workloadLevel"`
	RecommendedActions []string      `json:"recommendedActions"`
}

// AnalyzeKitchenWorkload summarises the pending and processing orders. It
// does not validate its input.
func AnalyzeKitchenWorkload(orders []domain.Order) WorkloadSummary {
	var (
		active     int
		items      int
		complexity float64
	)
	for _, o := range orders {
		if !o.Status.IsActive() {
			continue
		}
		active++
		for _, it := range o.Items {
			items += it.Units()
		}
		weight := 1.0
		if o.HasSpecialInstructions() {
			weight = 1.5
		}
		complexity += float64(o.ItemCount()) * weight
	}

	score := float64(active)*10 + complexity*5
	level := workloadLevel(score)
	return WorkloadSummary{
		ActiveOrderCount:   active,
		TotalItems:         items,
		ComplexityScore:    complexity,
		WorkloadScore:      score,
		WorkloadLevel:      level,
		RecommendedActions: recommendations(level),
	}
}

func workloadLevel(score float64) WorkloadLevel {
	switch {
	case score > 100:
		return WorkloadCritical
	case score > 70:
		return WorkloadHigh
	case score > 40:
		return WorkloadModerate
	default:
		return WorkloadNormal
	}
}

func recommendations(level WorkloadLevel) []string {
	var src []string
	switch level {
	case WorkloadCritical:
		src = criticalActions
	case WorkloadHigh:
		src = highActions
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// NeedsAttention is true for levels that warrant alerting staff.
func (l WorkloadLevel) NeedsAttention() bool {
	return l == WorkloadHigh || l == WorkloadCritical
}
