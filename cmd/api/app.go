package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/cache"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/events"
	adapterHTTP "github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/llm"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/mail"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/metrics"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/repository"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/config"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/services"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/workers"
)

type stores struct {
	users       domain.UserRepository
	activities  domain.ActivityRepository
	suggestions domain.SuggestionRepository
	reports     domain.ReportRepository
}

// app holds the wired router plus everything that must be started or closed
// around it.
type app struct {
	router  *gin.Engine
	worker  *workers.InsightWorker
	digests *workers.DigestScheduler
	logger  *logrus.Logger
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func buildApp(cfg *config.Config, logger *logrus.Logger, startTime time.Time) (*app, error) {
	a := &app{logger: logger}
	checks := make(map[string]adapterHTTP.HealthCheck)

	var st stores
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory stores, data is lost on restart")
		st = stores{
			users:       repository.NewInMemoryUserRepository(),
			activities:  repository.NewInMemoryActivityRepository(),
			suggestions: repository.NewInMemorySuggestionRepository(),
			reports:     repository.NewInMemoryReportRepository(),
		}
	default:
		logger.Info("connecting to database")
		db, err := sqlx.Connect("pgx", cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		a.onClose("database", db.Close)
		checks["database"] = db.PingContext
		logger.Info("database connected")

		st = stores{
			users:       repository.NewPostgresUserRepository(db),
			activities:  repository.NewPostgresActivityRepository(db),
			suggestions: repository.NewPostgresSuggestionRepository(db),
			reports:     repository.NewInMemoryReportRepository(),
		}
	}

	var insightCache domain.InsightCache = cache.NewMemoryInsightCache()
	redisClient, err := a.connectRedis(cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		st.activities = repository.NewCachedActivityRepository(st.activities, redisClient, logger)
		insightCache = cache.NewRedisInsightCache(redisClient)
	}

	if cfg.Mongo.URI != "" {
		mongoDB, err := repository.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.onClose("mongo", mongoDB.Disconnect)
		checks["mongo"] = mongoDB.Ping

		reports := repository.NewMongoReportRepository(mongoDB.Database)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = reports.EnsureIndexes(ctx)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("could not create report indexes")
		}
		st.reports = reports
		logger.Info("report history stored in mongo")
	}

	inference, err := newInference(cfg.LLM, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher domain.EventPublisher = events.NewLogPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, logger)
		a.onClose("kafka", kafka.Close)
		publisher = kafka
	}

	var mailer domain.Mailer = mail.NewLogMailer(logger)
	if cfg.SMTP.Enabled() {
		mailer = mail.NewSMTPMailer(cfg.SMTP, logger)
	}

	dashboardService := services.NewDashboardService(st.activities, inference, insightCache, cfg.InsightMaxAge, logger)
	a.worker = workers.NewInsightWorker(dashboardService, logger)

	activityService := services.NewActivityService(st.activities, inference, publisher, a.worker, logger)
	insightService := services.NewInsightService(st.activities, st.suggestions, st.reports, inference, publisher, logger)
	digestService := services.NewDigestService(st.users, st.activities, mailer, logger)

	a.digests, err = workers.NewDigestScheduler(cfg.DigestSchedule, digestService, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, st.users)
	authService := services.NewAuthService(st.users, tokenService)

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(authService),
		ActivityHandler:  adapterHTTP.NewActivityHandler(activityService),
		DashboardHandler: adapterHTTP.NewDashboardHandler(dashboardService),
		InsightHandler:   adapterHTTP.NewInsightHandler(insightService),
		Tokens:           tokenService,
		Redis:            redisClient,
		RateLimits: adapterHTTP.RateLimits{
			Requests:          cfg.RateLimitRequests,
			Window:            cfg.RateLimitWindow,
			InferenceRequests: cfg.InferenceRateLimit,
		},
		HealthChecks: checks,
		Logger:       logger,
		StartTime:    startTime,
	})

	return a, nil
}

func (a *app) connectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		a.logger.Info("redis not configured, caching in memory and rate limiting disabled")
		return nil, nil
	}

	client, err := cache.NewRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.onClose("redis", client.Close)
	a.logger.Info("redis connected")
	return client, nil
}

func newInference(cfg config.LLMConfig, logger *logrus.Logger) (domain.InferenceService, error) {
	if cfg.APIKey == "" {
		logger.Warn("LLM_API_KEY not set, AI features are disabled")
		return metrics.NewInstrumentedInference(llm.Disabled{}), nil
	}

	client, err := llm.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return metrics.NewInstrumentedInference(client), nil
}

// Start launches the background workers. They stop when ctx is cancelled.
func (a *app) Start(ctx context.Context) {
	a.worker.Start(ctx)
	a.digests.Start(ctx)
}

// Stop waits for the workers started by Start. ctx must already be cancelled.
func (a *app) Stop() {
	a.worker.Wait()
	a.digests.Stop()
}

func (a *app) onClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Close releases connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.WithError(err).WithField("dependency", c.name).Error("close failed")
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
