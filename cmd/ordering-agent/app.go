package main

import (
	"context"
	"fmt"
	"time"

	"food-ordering-agent/internal/catalog"
	"food-ordering-agent/internal/common/camunda"
	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/database"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/observability"
	"food-ordering-agent/internal/conversation"
	"food-ordering-agent/internal/embedding"
	"food-ordering-agent/internal/intent"
	"food-ordering-agent/internal/llm"
	"food-ordering-agent/internal/notification"
	"food-ordering-agent/internal/ordering"
	"food-ordering-agent/internal/ranking"
	"food-ordering-agent/internal/session"
	"food-ordering-agent/internal/transport/httpapi"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// app holds every wired component of a running agent.
type app struct {
	cfg      *config.Config
	zapLog   *zap.Logger
	log      logger.Logger
	obs      *observability.Observability
	sessions *session.Store
	catalog  catalog.Service
	notifier *notification.Service
	engine   *conversation.Engine
	orders   *ordering.Service
	camunda  *camunda.Client
	checks   map[string]httpapi.Pinger
	closers  []func() error
}

// connectRetries bounds how long startup waits for backing services.
const connectRetries = 5

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    logger.NewZapAdapter(zapLog),
		checks: map[string]httpapi.Pinger{},
	}

	a.obs = observability.New(cfg.App.Name)
	if cfg.Tracing.Enabled {
		tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		a.obs.WithTracing(tracing)
	}
	a.closers = append(a.closers, func() error { a.obs.Shutdown(); return nil })

	// --- Init Redis with retry ---
	var redisClient *redis.Client
	if cfg.Session.Backend == "redis" || cfg.Embedding.Cache.Enabled {
		var rc *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, connectRetries, time.Second, zapLog, "Redis connection")
		if err != nil {
			a.close()
			return nil, err
		}
		redisClient = rc.Client
		a.checks["redis"] = rc
		a.closers = append(a.closers, rc.Close)
	}

	// --- Session store ---
	var repo session.Repository = session.NewMemoryRepository()
	if cfg.Session.Backend == "redis" {
		repo = session.NewRedisRepository(redisClient, cfg.Session.KeyPrefix, time.Duration(cfg.Session.TTL)*time.Second)
	}
	a.sessions = session.NewStore(repo, nil, a.log)
	a.checks["sessions"] = a.sessions

	// --- Catalog backends ---
	var backends catalog.Backends
	if cfg.Catalog.Backend == "elasticsearch" {
		err := retryWithBackoff(func() error {
			var err error
			backends.Elasticsearch, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return backends.Elasticsearch.Ping(ctx)
		}, connectRetries, time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			a.close()
			return nil, err
		}
	}
	if cfg.Orders.Backend == "postgres" {
		err := retryWithBackoff(func() error {
			var err error
			backends.Postgres, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return backends.Postgres.Ping(ctx)
		}, connectRetries, time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, backends.Postgres.Close)
	}

	cat, err := catalog.New(ctx, cfg, backends, a.log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("catalog init failed: %w", err)
	}
	a.catalog = cat
	a.checks["catalog"] = cat

	// --- LLM, embeddings, classifier, ranker ---
	embedder, err := embedding.New(ctx, cfg.Embedding, redisClient, a.log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("embedding init failed: %w", err)
	}
	textService, err := llm.New(ctx, cfg.LLM, a.log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("llm init failed: %w", err)
	}

	var refs *intent.References
	err = retryWithBackoff(func() error {
		var err error
		refs, err = intent.NewReferences(ctx, embedder)
		return err
	}, connectRetries, time.Second, zapLog, "Intent reference embedding")
	if err != nil {
		a.close()
		return nil, err
	}

	ranker := ranking.NewRanker(ranking.Config{
		Radius:           cfg.Catalog.SearchRadius,
		TopK:             cfg.Agent.TopK,
		FetchConcurrency: cfg.Catalog.FetchConcurrency,
	}, cat, embedder, a.log)

	a.engine = conversation.NewEngine(
		conversation.Config{StepTimeout: config.GetDuration(cfg.Agent.StepTimeout)},
		conversation.Dependencies{
			Sessions:      a.sessions,
			Classifier:    intent.NewClassifier(refs, textService, embedder, a.log),
			LLM:           textService,
			Ranker:        ranker,
			Observability: a.obs,
		},
		a.log,
	)

	// --- Fan-out after booking ---
	a.notifier, err = notification.NewFromConfig(ctx, cfg.Notifications, a.log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("notifier init failed: %w", err)
	}

	var (
		notifier notification.Notifier
		process  ordering.ProcessStarter
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			a.camunda, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, connectRetries, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, a.camunda.Close)
		process = a.camunda
		a.checks["camunda"] = a.camunda
	}
	// The fulfilment worker sends the notification itself when it runs.
	if !(cfg.Camunda.Enabled && cfg.Camunda.NotifyWorkerEnabled) {
		notifier = a.notifier
	}

	a.orders = ordering.NewService(
		ordering.Config{FulfillmentProcess: cfg.Camunda.FulfillmentProcess},
		cat, a.sessions, notifier, process, a.log,
	)

	zapLog.Info("agent wired",
		zap.String("sessionBackend", cfg.Session.Backend),
		zap.String("catalogBackend", cfg.Catalog.Backend),
		zap.String("ordersBackend", cfg.Orders.Backend),
		zap.String("llmProvider", cfg.LLM.Provider),
		zap.String("embeddingProvider", cfg.Embedding.Provider),
		zap.Bool("camunda", cfg.Camunda.Enabled),
	)
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.zapLog.Error("error during shutdown", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.zapLog.Sync()
}
