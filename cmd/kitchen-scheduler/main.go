package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchen-scheduler/internal/app/board"
	"kitchen-scheduler/internal/app/kitchen"
	"kitchen-scheduler/internal/app/notify"
	"kitchen-scheduler/internal/common/config"
	"kitchen-scheduler/internal/common/db"
	"kitchen-scheduler/internal/common/logger"
	"kitchen-scheduler/internal/common/metrics"
	"kitchen-scheduler/internal/common/mq"
	"kitchen-scheduler/internal/repository"
)

const modes = "board-service | delay-monitor | notification-subscriber | check"

func main() {
	mode := flag.String("mode", "", modes)
	port := flag.Int("port", 0, "board-service: http port (overrides http.port)")
	cfgPath := flag.String("config", "", "path to config.yaml (default: config.yaml or deploy/config.example.yaml if present)")
	interval := flag.Duration("interval", 0, "delay-monitor: sweep interval (overrides monitor.interval)")
	flag.Parse()

	switch *mode {
	case "board-service", "delay-monitor", "notification-subscriber", "check":
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: "+modes)
		os.Exit(2)
	}

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		found, err := config.FindConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			lg.Error("config_lookup_failed", err, nil)
			os.Exit(1)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if *interval != 0 {
		cfg.Monitor.Interval = *interval
	}

	svc := logger.New(*mode)
	if err := svc.SetLevel(cfg.Logging.Level); err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}
	svc.Info("service_started", map[string]any{"mode": *mode, "config": path})

	if err := run(ctx, *mode, cfg, svc); err != nil {
		svc.Error("fatal", err, nil)
		os.Exit(1)
	}
	svc.Info("graceful_shutdown", nil)
}

func run(ctx context.Context, mode string, cfg config.App, lg *logger.Logger) error {
	m := metrics.New(mode)

	switch mode {
	case "board-service":
		orders, closeDB, err := openOrders(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		opts, err := cfg.SchedulerOptions()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		h := board.NewHandler(orders, lg, m, nil, board.Config{
			Port:             cfg.HTTP.Port,
			Lookback:         cfg.Monitor.Lookback,
			Location:         loc,
			SchedulerOptions: opts,
		})
		lg.Info("http_listening", map[string]any{"port": cfg.HTTP.Port})
		return board.Run(ctx, h)

	case "delay-monitor":
		orders, closeDB, err := openOrders(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		client, err := openBroker(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		opts, err := cfg.SchedulerOptions()
		if err != nil {
			return err
		}
		mon := kitchen.NewMonitor(orders, client, lg, m, nil, kitchen.Config{
			Interval:         cfg.Monitor.Interval,
			Lookback:         cfg.Monitor.Lookback,
			ShopID:           cfg.Monitor.ShopID,
			SchedulerOptions: opts,
		})
		lg.Info("monitor_started", map[string]any{"interval": cfg.Monitor.Interval.String()})
		return mon.Run(ctx)

	case "notification-subscriber":
		client, err := openBroker(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		deliveries, err := client.Consume(mq.AlertsQueue, "notification-subscriber", cfg.Rabbit.Prefetch)
		if err != nil {
			return fmt.Errorf("consume %s: %w", mq.AlertsQueue, err)
		}
		return notify.NewSubscriber(lg, m).Run(ctx, deliveries)

	case "check":
		return check(ctx, cfg, lg)
	}
	return fmt.Errorf("unknown mode %q", mode)
}

func openOrders(ctx context.Context, cfg config.App) (*repository.OrdersPG, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := db.Connect(connectCtx, db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Pass,
		Name:     cfg.Database.Name,
	})
	if err != nil {
		return nil, nil, err
	}
	return repository.NewOrdersPG(conn.Pool), conn.Close, nil
}

func openBroker(cfg config.App) (*mq.Client, error) {
	client, err := mq.Dial(mq.Config{
		Host:     cfg.Rabbit.Host,
		Port:     cfg.Rabbit.Port,
		User:     cfg.Rabbit.User,
		Password: cfg.Rabbit.Pass,
		Confirms: cfg.Rabbit.Confirms,
	})
	if err != nil {
		return nil, err
	}
	if err := client.DeclareAlerts(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// check verifies the database and broker are reachable and exits.
func check(ctx context.Context, cfg config.App, lg *logger.Logger) error {
	orders, closeDB, err := openOrders(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	if err := orders.Ping(ctx); err != nil {
		return err
	}
	lg.Info("postgres_connected", map[string]any{"host": cfg.Database.Host, "port": cfg.Database.Port, "database": cfg.Database.Name})

	client, err := openBroker(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Ping(); err != nil {
		return err
	}
	lg.Info("rabbitmq_connected", map[string]any{"host": cfg.Rabbit.Host, "port": cfg.Rabbit.Port})
	return nil
}
