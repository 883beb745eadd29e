package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"kitchen-scheduler/internal/domain"
	"kitchen-scheduler/internal/scheduler"
)

const envPrefix = "KS"

type DB struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"password"`
	Name string `mapstructure:"database"`
}

type MQ struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"password"`
	Prefetch int    `mapstructure:"prefetch"`
	Confirms bool   `mapstructure:"confirms"`
}

type HTTP struct {
	Port int `mapstructure:"port"`
}

type Monitor struct {
	Interval time.Duration `mapstructure:"interval"`
	ShopID   string        `mapstructure:"shop_id"`
	Lookback time.Duration `mapstructure:"lookback"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

// Scheduler mirrors scheduler.Config in file form. Keys are case-insensitive
// and status weights are plain strings until SchedulerOptions checks them.
type Scheduler struct {
	PreparationTimes map[string]float64       `mapstructure:"preparation_times"`
	PriorityWeights  PriorityWeights          `mapstructure:"priority_weights"`
	TimeThresholds   scheduler.TimeThresholds `mapstructure:"time_thresholds"`
	BusyPeriods      []scheduler.BusyPeriod   `mapstructure:"busy_periods"`
	Timezone         string                   `mapstructure:"timezone"`
}

type PriorityWeights struct {
	TimeFactor        float64            `mapstructure:"time_factor"`
	StatusWeights     map[string]float64 `mapstructure:"status_weights"`
	TotalAmountFactor float64            `mapstructure:"total_amount_factor"`
	ItemCountFactor   float64            `mapstructure:"item_count_factor"`
}

type App struct {
	Database  DB        `mapstructure:"database"`
	Rabbit    MQ        `mapstructure:"rabbitmq"`
	HTTP      HTTP      `mapstructure:"http"`
	Monitor   Monitor   `mapstructure:"monitor"`
	Logging   Logging   `mapstructure:"logging"`
	Scheduler Scheduler `mapstructure:"scheduler"`
}

// Load reads path (when non-empty), an optional .env file from the working
// directory and KS_* environment variables, in increasing precedence.
func Load(path string) (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var a App
	if err := v.Unmarshal(&a); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	if a.Database.Host == "" || a.Rabbit.Host == "" {
		return App{}, errors.New("invalid config: missing database/rabbitmq host")
	}
	if a.Monitor.Interval <= 0 {
		return App{}, fmt.Errorf("invalid config: monitor.interval must be positive, got %s", a.Monitor.Interval)
	}
	return a, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "restaurant_user")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "restaurant_db")

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.prefetch", 10)
	v.SetDefault("rabbitmq.confirms", true)

	v.SetDefault("http.port", 3002)

	v.SetDefault("monitor.interval", time.Minute)
	v.SetDefault("monitor.shop_id", "")
	v.SetDefault("monitor.lookback", 24*time.Hour)

	v.SetDefault("logging.level", "info")

	v.SetDefault("scheduler.timezone", "")
}

// SchedulerOptions turns the scheduler section into constructor options.
// Unknown status keys and time zones are rejected here rather than on the
// first scheduling request.
func (a App) SchedulerOptions() ([]scheduler.Option, error) {
	sc := a.Scheduler

	cfg := scheduler.Config{
		PriorityWeights: scheduler.PriorityWeights{
			TimeFactor:        sc.PriorityWeights.TimeFactor,
			TotalAmountFactor: sc.PriorityWeights.TotalAmountFactor,
			ItemCountFactor:   sc.PriorityWeights.ItemCountFactor,
		},
		TimeThresholds: sc.TimeThresholds,
		BusyPeriods:    sc.BusyPeriods,
	}
	if len(sc.PreparationTimes) > 0 {
		cfg.PreparationTimes = make(map[string]float64, len(sc.PreparationTimes))
		for k, v := range sc.PreparationTimes {
			cfg.PreparationTimes[strings.ToUpper(k)] = v
		}
	}
	if len(sc.PriorityWeights.StatusWeights) > 0 {
		cfg.PriorityWeights.StatusWeights = make(map[domain.Status]float64, len(sc.PriorityWeights.StatusWeights))
		for k, v := range sc.PriorityWeights.StatusWeights {
			st, err := domain.ParseStatus(strings.ToLower(k))
			if err != nil {
				return nil, fmt.Errorf("scheduler.priority_weights.status_weights: %w", err)
			}
			cfg.PriorityWeights.StatusWeights[st] = v
		}
	}

	loc, err := a.Location()
	if err != nil {
		return nil, err
	}
	return []scheduler.Option{scheduler.WithConfig(cfg), scheduler.WithLocation(loc)}, nil
}

// Location is the kitchen's local time zone, time.Local when unset.
func (a App) Location() (*time.Location, error) {
	if a.Scheduler.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
