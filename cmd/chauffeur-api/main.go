// README: Entry point; loads config, wires services, starts HTTP server and the journey reconciler.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chauffeur/internal/config"
	httptransport "chauffeur/internal/http"
	"chauffeur/internal/infra"
	"chauffeur/internal/logger"
	"chauffeur/internal/maps"
	"chauffeur/internal/modules/booking"
	"chauffeur/internal/modules/journey"
	"chauffeur/internal/modules/location"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/notify"
)

// memoryDSN selects the in-process booking store for local runs.
const memoryDSN = "memory"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("chauffeur-api", cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tariffZone, err := time.LoadLocation(cfg.Tariff.TimeZone)
	if err != nil {
		log.Error("tariff time zone", logger.Error(err))
		os.Exit(1)
	}

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Error("booking repository init failed", logger.Error(err))
		os.Exit(1)
	}
	defer closeRepo()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warning("redis unavailable; live cache and progress disabled", logger.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var (
		feed   location.Publisher
		source location.Source
	)
	if rdb != nil && cfg.Redis.FixFeed {
		redisFeed := location.NewRedisFeed(rdb, log)
		feed, source = redisFeed, redisFeed
	} else {
		hub := location.NewHub()
		feed, source = hub, hub
	}

	sinks := []location.Sink{location.NewRepositorySink(repo)}
	var (
		progress  journey.ProgressSink
		positions journey.PositionCache
	)
	if rdb != nil {
		live := location.NewLiveStore(rdb, 0)
		sinks = append(sinks, live)
		progress, positions = live, live
	}
	if cfg.Firebase.ProjectID != "" {
		rtdb, err := infra.NewFirebaseDatabase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
		if err != nil {
			log.Warning("firebase mirror disabled", logger.Error(err))
		} else {
			sinks = append(sinks, location.NewFirebaseMirror(rtdb))
		}
	}
	tracker := location.NewTracker(source, log, cfg.Journey.LocationWriteTimeout, sinks...)

	var (
		router   pricing.Router
		geocoder journey.Geocoder
	)
	if cfg.Maps.APIKey != "" {
		client, err := maps.NewClient(cfg.Maps.APIKey)
		if err != nil {
			log.Error("maps client init failed", logger.Error(err))
			os.Exit(1)
		}
		opts := maps.Options{Region: cfg.Maps.Region, Language: cfg.Maps.Language}
		router = maps.NewRouteService(client, opts)
		geocoder = maps.NewGeocoder(client, opts)
	} else {
		log.Warning("maps api key not set; estimates need an explicit distance and the proximity gate fails open without stored destinations")
	}

	var notifier journey.Notifier = notify.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer kafkaPub.Close()
		notifier = notify.Multi{kafkaPub, notify.NewLogPublisher(log)}
	}

	pricingSvc := pricing.NewService(router, tariffZone)
	bookingSvc := booking.NewService(repo, pricingSvc, log.With(logger.String("module", "booking")))
	journeySvc := journey.NewService(journey.Deps{
		Repo:      repo,
		Tracker:   tracker,
		Feed:      feed,
		Geocoder:  geocoder,
		Notifier:  notifier,
		Progress:  progress,
		Positions: positions,
		Log:       log.With(logger.String("module", "journey")),
	}, cfg.Journey)
	defer journeySvc.Shutdown()

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:       bookingSvc,
		Journeys:       journeySvc,
		Pricing:        pricingSvc,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log.With(logger.String("module", "http")),
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go journeySvc.RunReconciler(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("http server listening", logger.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", logger.Error(err))
	}
}

func openRepository(ctx context.Context, cfg config.Config, log logger.ILogger) (booking.Repository, func(), error) {
	if cfg.DB.DSN == memoryDSN {
		log.Warning("using in-memory booking store")
		return booking.NewMemoryStore(), func() {}, nil
	}

	applied, err := infra.Migrate(cfg.DB.DSN, cfg.DB.MigrationsDir)
	if err != nil {
		return nil, nil, err
	}
	if applied {
		log.Info("database migrations applied")
	} else {
		log.Info("no migrations to apply")
	}

	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}
	return booking.NewStore(pool), pool.Close, nil
}
