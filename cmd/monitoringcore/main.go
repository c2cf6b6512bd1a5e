// Monitoring Core - school access control and environmental monitoring.
//
// This is the main entry point. It loads configuration, opens the SQLite
// store, wires the monitoring service to its optional outbound sinks (MQTT,
// InfluxDB) and serves the HTTP API until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/edugate/monitoring-core/migrations"

	"github.com/edugate/monitoring-core/internal/api"
	"github.com/edugate/monitoring-core/internal/auth"
	"github.com/edugate/monitoring-core/internal/infrastructure/cache"
	"github.com/edugate/monitoring-core/internal/infrastructure/config"
	"github.com/edugate/monitoring-core/internal/infrastructure/database"
	"github.com/edugate/monitoring-core/internal/infrastructure/influxdb"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/infrastructure/mqtt"
	"github.com/edugate/monitoring-core/internal/monitoring"
	"github.com/edugate/monitoring-core/internal/notify"
	"github.com/edugate/monitoring-core/internal/settings"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthInterval is how often optional dependencies are probed and logged.
const healthInterval = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting monitoring core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "school", cfg.School.ID)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	health := map[string]api.HealthChecker{"database": db}

	// Settings, optionally behind the Redis snapshot cache
	sqliteSettings := settings.NewSQLiteRepository(db.DB, settings.FromConfig(cfg.Monitoring.Defaults))
	sqliteSettings.SetLogger(log.With("component", "settings"))
	var settingsRepo settings.Repository = sqliteSettings

	redisClient, err := cache.Connect(cfg.Redis)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		log.Info("redis settings cache disabled")
	case err != nil:
		return fmt.Errorf("connecting to redis: %w", err)
	default:
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing redis", "error", closeErr)
			}
		}()
		settingsRepo = settings.NewCachedRepository(sqliteSettings, redisClient, cfg.GetSettingsTTL(), log)
		health["redis"] = redisClient
		log.Info("redis settings cache enabled", "addr", cfg.Redis.Addr)
	}

	if bootErr := settingsRepo.Bootstrap(ctx); bootErr != nil {
		return fmt.Errorf("bootstrapping settings: %w", bootErr)
	}

	// Outbound sinks
	metrics := notify.NewMetrics()
	sinks := notify.Multi{metrics}

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

		sinks = append(sinks, notify.NewMQTTSink(mqttClient, mqttClient.QoS(), log.With("component", "mqtt-sink")))
		health["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, notify.NewInfluxSink(influxClient))
		health["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	service := monitoring.NewSQLite(db.DB, settingsRepo, sinks, log.With("component", "monitoring"))
	service.OnTokenCollision(metrics.TokenCollision)

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Service:  service,
		Checker:  auth.NewChecker(),
		Metrics:  metrics.Handler(),
		Health:   health,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if startErr := server.Start(gctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		<-gctx.Done()
		return server.Close()
	})

	g.Go(func() error {
		watchHealth(gctx, log, health, healthInterval)
		return nil
	})

	log.Info("initialisation complete, waiting for shutdown signal")
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("monitoring core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MONITORING_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MONITORING_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// watchHealth probes every dependency each interval and logs failures
// until ctx is cancelled.
func watchHealth(ctx context.Context, log *logging.Logger, checks map[string]api.HealthChecker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, c := range checks {
				probeCtx, cancel := context.WithTimeout(ctx, interval/2)
				if err := c.HealthCheck(probeCtx); err != nil {
					log.Warn("dependency unhealthy", "dependency", name, "error", err)
				}
				cancel()
			}
		}
	}
}
