package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/ideaboard/api/internal/api/handlers"
	"github.com/ideaboard/api/internal/api/middleware"
	"github.com/ideaboard/api/internal/config"
	"github.com/ideaboard/api/internal/observability"
	"github.com/ideaboard/api/internal/openai"
	"github.com/ideaboard/api/internal/repository"
	"github.com/ideaboard/api/internal/service"
	"github.com/ideaboard/api/internal/specgen"
	"github.com/ideaboard/api/internal/workers"
	"github.com/ideaboard/api/pkg/database"
)

const (
	searchQueryCacheSize = 1000
	embeddingMaxWorkers  = 2
	serverReadTimeout    = 15 * time.Second
	serverWriteTimeout   = 15 * time.Second
	serverIdleTimeout    = 60 * time.Second
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	meterProvider  observability.MeterProviderShutdown
	tracerProvider *sdktrace.TracerProvider
}

// NewApp builds and wires all components. It does not start the HTTP server
// or River; call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	meterProvider, metricsHandler, metrics, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{})
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OtelTracesExporter == "" {
		slog.Info("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(ctx, cfg.OtelTracesExporter, "")
		if err != nil {
			if err2 := meterProvider.Shutdown(context.Background()); err2 != nil {
				slog.Error("shutdown meter provider after tracer provider error", "error", err2)
			}

			return nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	// Install TraceContextHandler unconditionally so request_id (and
	// trace_id/span_id when tracing is on) appear in logs.
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(slog.Default().Handler())))

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	db, err := connectDatabase(ctx, cfg, meterProvider, tracerProvider)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()

	ideasRepo := repository.NewIdeasRepository(db)
	votesRepo := repository.NewVotesRepository(db)
	commentsRepo := repository.NewCommentsRepository(db)
	tasksRepo := repository.NewTasksRepository(db)
	anonUsersRepo := repository.NewAnonUsersRepository(db)

	var (
		generator       service.SpecGenerator
		embedder        service.Embedder
		embeddingClient service.EmbeddingClient
	)

	if cfg.OpenAIAPIKey == "" {
		slog.Warn("spec generation and embeddings disabled (OPENAI_API_KEY not set)")
	} else {
		client := openai.NewClient(cfg.OpenAIAPIKey,
			openai.WithChatModel(cfg.OpenAIModel),
			openai.WithEmbeddingModel(cfg.OpenAIEmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		)
		generator = specgen.NewGenerator(client, logger)
		embedder = service.NewEmbeddingGateway(client, cfg.EmbeddingTimeout, metrics.Embeddings, logger)
		embeddingClient = client

		slog.Info("OpenAI provider enabled",
			"chat_model", cfg.OpenAIModel,
			"embedding_model", cfg.OpenAIEmbeddingModel,
		)
	}

	ideasService := service.NewIdeasService(service.IdeasServiceParams{
		IdeasRepo:        ideasRepo,
		VotesRepo:        votesRepo,
		CommentsRepo:     commentsRepo,
		TasksRepo:        tasksRepo,
		Profiles:         anonUsersRepo,
		Generator:        generator,
		Embedder:         embedder,
		AnonLimiter:      service.NewSlidingWindowLimiter(cfg.IdeaRateLimit, time.Hour),
		IPLimiter:        service.NewSlidingWindowLimiter(cfg.IdeaIPRateLimit, time.Hour),
		SimilarTopK:      cfg.SimilarIdeasLimit,
		SimilarityFloor:  cfg.SimilarityThreshold,
		JobMaxAttempts:   cfg.EmbeddingMaxAttempts,
		RateLimitMetrics: metrics.RateLimit,
		RankingMetrics:   metrics.Ranking,
		EmbeddingMetrics: metrics.Embeddings,
		Logger:           logger,
	})

	riverWorkers := river.NewWorkers()

	var searchHandler *handlers.SearchHandler

	if embeddingClient != nil {
		embeddingLimiter := rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1)
		embeddingWorker := workers.NewIdeaEmbeddingWorker(ideasService, embeddingClient, embeddingLimiter, metrics.Embeddings)
		river.AddWorker(riverWorkers, embeddingWorker)

		queryCache, err := lru.New[string, []float32](searchQueryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create search query cache: %w", err)
		}

		searchService := service.NewSearchService(service.SearchServiceParams{
			EmbeddingClient: embeddingClient,
			IdeasRepo:       ideasRepo,
			TopK:            cfg.SimilarIdeasLimit,
			Floor:           cfg.SimilarityThreshold,
			QueryCache:      queryCache,
			CacheMetrics:    metrics.Cache,
			RankingMetrics:  metrics.Ranking,
			Logger:          logger,
		})
		searchHandler = handlers.NewSearchHandler(searchService)
	}

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.EmbeddingsQueueName: {MaxWorkers: embeddingMaxWorkers},
		},
		Workers:     riverWorkers,
		MaxAttempts: cfg.EmbeddingMaxAttempts,
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("create River client: %w", err)
	}

	tasksService := service.NewTasksService(tasksRepo)
	anonUsersService := service.NewAnonUsersService(anonUsersRepo)

	ideasHandler := handlers.NewIdeasHandler(ideasService)
	tasksHandler := handlers.NewTasksHandler(tasksService)
	meHandler := handlers.NewMeHandler(anonUsersService)
	healthHandler := handlers.NewHealthHandler()

	server := newHTTPServer(cfg, logger, metrics, metricsHandler, tracerProvider,
		ideasHandler, tasksHandler, meHandler, searchHandler, healthHandler)

	return &App{
		cfg:            cfg,
		db:             db,
		server:         server,
		river:          riverClient,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

// newPostgresPool opens the pool with pgvector types registered on every new
// connection, for the ideas embedding column.
func newPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	return database.NewPostgresPool(ctx, databaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
}

// connectDatabase opens the pool with pgvector types registered on every
// connection. On failure it tears down the observability providers built so
// far.
func connectDatabase(
	ctx context.Context,
	cfg *config.Config,
	meterProvider observability.MeterProviderShutdown,
	tracerProvider *sdktrace.TracerProvider,
) (*pgxpool.Pool, error) {
	db, err := newPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		if tracerProvider != nil {
			if err2 := observability.ShutdownTracerProvider(context.Background(), tracerProvider); err2 != nil {
				slog.Error("shutdown tracer provider after database error", "error", err2)
			}
		}

		if err2 := meterProvider.Shutdown(context.Background()); err2 != nil {
			slog.Error("shutdown meter provider after database error", "error", err2)
		}

		return nil, fmt.Errorf("connect database: %w", err)
	}

	return db, nil
}

// newHTTPServer builds the HTTP server. Handler chain:
// RequestID -> otelhttp -> Metrics -> Logging -> AnonID -> mux, so access
// logs carry trace context and every handler sees the anon_id cookie.
func newHTTPServer(
	cfg *config.Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
	metricsHandler http.Handler,
	tracerProvider *sdktrace.TracerProvider,
	ideas *handlers.IdeasHandler,
	tasks *handlers.TasksHandler,
	me *handlers.MeHandler,
	search *handlers.SearchHandler,
	health *handlers.HealthHandler,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/ideas", ideas.Create)
	mux.HandleFunc("GET /v1/ideas", ideas.List)
	mux.HandleFunc("GET /v1/ideas/{id}", ideas.Get)
	mux.HandleFunc("POST /v1/ideas/{id}/upvote", ideas.Upvote)
	mux.HandleFunc("DELETE /v1/ideas/{id}/upvote", ideas.RemoveUpvote)
	mux.HandleFunc("GET /v1/ideas/{id}/comments", ideas.ListComments)
	mux.HandleFunc("POST /v1/ideas/{id}/comments", ideas.CreateComment)

	mux.HandleFunc("POST /v1/tasks/{id}/claim", tasks.Claim)
	mux.HandleFunc("DELETE /v1/tasks/{id}/claim", tasks.Unclaim)
	mux.HandleFunc("PATCH /v1/tasks/{id}/status", tasks.UpdateStatus)
	mux.HandleFunc("POST /v1/tasks/{id}/links", tasks.AddLink)
	mux.HandleFunc("DELETE /v1/task-links/{id}", tasks.DeleteLink)

	mux.HandleFunc("GET /v1/me", me.Get)
	mux.HandleFunc("POST /v1/me/nickname", me.SetNickname)

	// Search is nil when no embedding provider is configured; semantic search
	// is not registered then.
	if search != nil {
		mux.HandleFunc("GET /v1/ideas/search/semantic", search.Semantic)
	}

	mux.HandleFunc("GET /health", health.Check)
	mux.Handle("GET /metrics", metricsHandler)

	var handler http.Handler = mux
	handler = middleware.AnonID(cfg.CookieSecure)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Metrics(metrics.HTTP)(handler)

	otelOpts := []otelhttp.Option{
		// Skip tracing for health checks and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	handler = otelhttp.NewHandler(handler, "ideaboard-api", otelOpts...)
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled
// or a component fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	go func() {
		if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case runErr <- fmt.Errorf("river: %w", err):
			default:
			}
		}
	}()

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// Shutdown stops the server, River, and the observability providers in
// order. Call after Run returns.
func (a *App) Shutdown(ctx context.Context) error {
	var first error

	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		first = fmt.Errorf("server shutdown: %w", err)
	}

	if err := a.river.Stop(ctx); err != nil && first == nil {
		first = fmt.Errorf("river stop: %w", err)
	}

	if a.tracerProvider != nil {
		if err := observability.ShutdownTracerProvider(ctx, a.tracerProvider); err != nil && first == nil {
			first = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	}

	if err := a.meterProvider.Shutdown(ctx); err != nil && first == nil {
		first = fmt.Errorf("meter provider shutdown: %w", err)
	}

	a.db.Close()

	return first
}
