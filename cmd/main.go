package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/hilthontt/converse/internal/infrastructure/auth"
	"github.com/hilthontt/converse/internal/infrastructure/configs"
	"github.com/hilthontt/converse/internal/infrastructure/events"
	"github.com/hilthontt/converse/internal/infrastructure/logging"
	"github.com/hilthontt/converse/internal/infrastructure/messaging"
	"github.com/hilthontt/converse/internal/infrastructure/metrics"
	"github.com/hilthontt/converse/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/converse/internal/infrastructure/tracing"
	"github.com/hilthontt/converse/internal/infrastructure/ws"
	"github.com/hilthontt/converse/internal/persistence/db"
	"github.com/hilthontt/converse/internal/persistence/repository"
	"github.com/hilthontt/converse/internal/presentation/api"
	"github.com/hilthontt/converse/internal/presentation/handler/health"
	"github.com/hilthontt/converse/internal/presentation/handler/messages"
	"github.com/hilthontt/converse/internal/presentation/handler/socket"
	"github.com/hilthontt/converse/internal/presentation/handler/users"
)

const (
	serviceName = "converse-api"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT secret is required (auth.jwt_secret or JWT_SECRET)")
	}

	metrics.Register()

	mongoCfg := &db.MongoConfig{
		URI:               cfg.Mongo.URI,
		Database:          cfg.Mongo.Database,
		ConnectionTimeout: db.DefaultConnectionTimeout,
	}
	mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.DisconnectMongo(context.Background(), mongoClient)

	database := db.GetDatabase(mongoClient, mongoCfg)

	userRepository := repository.NewUserRepository(database)
	messageRepository := repository.NewMessageRepository(database)
	conversationRepository := repository.NewConversationRepository(database)

	if err := userRepository.EnsureIndexes(ctx); err != nil {
		logger.Warnw("failed to ensure user indexes", "error", err)
	}

	var sink ws.EventSink
	if cfg.RabbitMQ.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		logger.Infow("rabbitmq connected", "exchange", messaging.ChatExchange)

		sink = events.NewChatPublisher(rabbitmq, logger)

		auditConsumer := events.NewAuditConsumer(rabbitmq, logger)
		go func() {
			if err := auditConsumer.Listen(); err != nil {
				logger.Errorw("audit consumer stopped", "error", err)
			}
		}()
	}

	wsCore := ws.NewCore(logger, sink)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	usersHandler := users.NewHandler(userRepository, jwtManager, logger)
	messagesHandler := messages.NewHandler(userRepository, messageRepository, conversationRepository, logger)
	socketHandler := socket.NewHandler(wsCore, cfg.WS, cfg.HTTP.AllowedOrigins, logger)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(*cfg, usersHandler, messagesHandler, socketHandler, healthHandler, jwtManager, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
