package scheduler

import (
	"fmt"

	"dario.cat/mergo"

	"kitchen-scheduler/internal/domain"
)

const DefaultPrepKey = "DEFAULT"

// Config tunes scoring, estimation and delay detection. Zero-valued fields in
// an override passed to WithConfig are treated as unset and keep the default.
type Config struct {
	PreparationTimes map[string]float64 `mapstructure:"preparation_times"`
	PriorityWeights  PriorityWeights    `mapstructure:"priority_weights"`
	TimeThresholds   TimeThresholds     `mapstructure:"time_thresholds"`
	BusyPeriods      []BusyPeriod       `mapstructure:"busy_periods"`
}

type PriorityWeights struct {
	TimeFactor        float64                   `mapstructure:"time_factor"`
	StatusWeights     map[domain.Status]float64 `mapstructure:"-"`
	TotalAmountFactor float64                   `mapstructure:"total_amount_factor"`
	ItemCountFactor   float64                   `mapstructure:"item_count_factor"`
}

type TimeThresholds struct {
	PendingDelayHours     float64 `mapstructure:"pending_delay_hours"`
	ProcessingDelayHours  float64 `mapstructure:"processing_delay_hours"`
	PickupWindowMinutes   float64 `mapstructure:"pickup_window_minutes"`
	MaxPreparationMinutes float64 `mapstructure:"max_preparation_minutes"`
}

// BusyPeriod adds BufferMinutes to pickup estimates whose ready hour falls in
// [StartHour, EndHour], both ends included.
type BusyPeriod struct {
	StartHour     int `mapstructure:"start_hour"`
	EndHour       int `mapstructure:"end_hour"`
	BufferMinutes int `mapstructure:"buffer_minutes"`
}

func DefaultConfig() Config {
	return Config{
		PreparationTimes: map[string]float64{
			"SANDWICH": 10,
			"BURGER":   15,
			"PIZZA":    20,
			"SALAD":    8,
			"COFFEE":   5,
			"SMOOTHIE": 7,
			"DESSERT":  12,
			"DEFAULT":  15,
		},
		PriorityWeights: PriorityWeights{
			TimeFactor: 2,
			StatusWeights: map[domain.Status]float64{
				domain.StatusPending:    10,
				domain.StatusProcessing: 5,
				domain.StatusCompleted:  0,
				domain.StatusCancelled:  -1,
				domain.StatusPickedUp:   -2,
			},
			TotalAmountFactor: 0.1,
			ItemCountFactor:   0.5,
		},
		TimeThresholds: TimeThresholds{
			PendingDelayHours:     1,
			ProcessingDelayHours:  0.5,
			PickupWindowMinutes:   30,
			MaxPreparationMinutes: 120,
		},
		BusyPeriods: []BusyPeriod{
			{StartHour: 11, EndHour: 14, BufferMinutes: 15},
			{StartHour: 17, EndHour: 19, BufferMinutes: 10},
		},
	}
}

// MergeConfig deep-merges the non-zero fields of overrides over the defaults.
// Maps merge key by key; a non-empty BusyPeriods slice replaces the default one.
func MergeConfig(overrides Config) (Config, error) {
	cfg := DefaultConfig()
	if err := mergo.Merge(&cfg, overrides, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merge scheduler config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, ok := c.PreparationTimes[DefaultPrepKey]; !ok {
		return fmt.Errorf("scheduler config: preparation_times must keep a %s entry", DefaultPrepKey)
	}
	for st := range c.PriorityWeights.StatusWeights {
		if !st.Valid() {
			return fmt.Errorf("scheduler config: status weight: %w %q", domain.ErrInvalidStatus, string(st))
		}
	}
	if c.TimeThresholds.MaxPreparationMinutes < minPreparationMinutes {
		return fmt.Errorf("scheduler config: max_preparation_minutes %.1f is below the %d minute floor",
			c.TimeThresholds.MaxPreparationMinutes, minPreparationMinutes)
	}
	for _, p := range c.BusyPeriods {
		if p.StartHour < 0 || p.EndHour > 23 || p.StartHour > p.EndHour {
			return fmt.Errorf("scheduler config: busy period %d-%d is not a valid hour range", p.StartHour, p.EndHour)
		}
	}
	return nil
}

func (c Config) prepMinutes(key string) float64 {
	if v, ok := c.PreparationTimes[key]; ok {
		return v
	}
	return c.PreparationTimes[DefaultPrepKey]
}

func (c Config) busyBuffer(hour int) int {
	for _, p := range c.BusyPeriods {
		if hour >= p.StartHour && hour <= p.EndHour {
			return p.BufferMinutes
		}
	}
	return 0
}
