package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hilthontt/converse/internal/infrastructure/auth"
	"github.com/hilthontt/converse/internal/infrastructure/configs"
	"github.com/hilthontt/converse/internal/infrastructure/ratelimiter"
	healthHandler "github.com/hilthontt/converse/internal/presentation/handler/health"
	messagesHandler "github.com/hilthontt/converse/internal/presentation/handler/messages"
	socketHandler "github.com/hilthontt/converse/internal/presentation/handler/socket"
	usersHandler "github.com/hilthontt/converse/internal/presentation/handler/users"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Application struct {
	config          configs.Config
	usersHandler    *usersHandler.Handler
	messagesHandler *messagesHandler.Handler
	socketHandler   *socketHandler.Handler
	healthHandler   *healthHandler.Handler
	jwtManager      *auth.JWTManager
	logger          *zap.SugaredLogger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	usersHandler *usersHandler.Handler,
	messagesHandler *messagesHandler.Handler,
	socketHandler *socketHandler.Handler,
	healthHandler *healthHandler.Handler,
	jwtManager *auth.JWTManager,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		usersHandler:    usersHandler,
		messagesHandler: messagesHandler,
		socketHandler:   socketHandler,
		healthHandler:   healthHandler,
		jwtManager:      jwtManager,
		logger:          logger,
		ratelimiter:     ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(app.enableCors)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(app.rateLimiterMiddleware)
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/user", func(r chi.Router) {
				r.Post("/register", app.usersHandler.RegisterHandler)
				r.Post("/login", app.usersHandler.LoginHandler)
				r.Get("/logout", app.usersHandler.LogoutHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.authMiddleware)
					r.Get("/", app.usersHandler.GetOthersHandler)
					r.Get("/all", app.usersHandler.GetAllHandler)
					r.Get("/search", app.usersHandler.SearchHandler)
				})
			})

			r.Route("/message", func(r chi.Router) {
				r.Use(app.authMiddleware)
				r.Post("/send/{peerId}", app.messagesHandler.SendMessageHandler)
				r.Get("/{peerId}", app.messagesHandler.GetMessagesHandler)
			})

			r.Get("/health", app.healthHandler.GetHealth)
			r.Get("/healthz", app.healthHandler.GetHealth)
			r.Get("/ready", app.healthHandler.GetHealth)
			r.Get("/live", app.healthHandler.GetHealth)
		})

		// The upgrade request must not run under the request timeout: the
		// connection outlives it by design.
		r.Get("/ws", app.socketHandler.UpgradeHandler)
	})

	r.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(r, "converse.http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
