package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adcraft/docs" //this is required to generate swagger docs
	"adcraft/internal/auth"
	"adcraft/internal/mailer"
	"adcraft/internal/meta"
	"adcraft/internal/ratelimiter"
	"adcraft/internal/store"
	"adcraft/internal/workflow"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	engine        *workflow.Engine
	gemini        generationBackend
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	loginBroker   *meta.LoginBroker
	oauth         meta.OAuthConfig
	newGraph      func() workflow.GraphClient
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	auth        authConfig
	meta        metaConfig
	ai          aiConfig
	mail        mailConfig
	rateLimiter ratelimiter.Config
	sessionTTL  time.Duration
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	secret      string
	stateSecret string
	iss         string
}
type basicConfig struct {
	user     string
	passHash string
}

type metaConfig struct {
	appID       string
	redirectURL string
	graphURL    string
}

type aiConfig struct {
	geminiKey  string
	textModel  string
	imageModel string
	proxyURL   string
}

type mailConfig struct {
	enabled   bool
	fromEmail string
	notifyTo  string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// A configured frontend pins CORS to that origin; without one the
	// API stays open for local development.
	allowedOrigins := []string{"https://*", "http://*"}
	if app.config.frontendURL != "" {
		allowedOrigins = []string{app.config.frontendURL}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Generation calls can take a while; the request context signals
	// through ctx.Done() when processing should stop.
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// The generation proxy: one endpoint, operation-tagged envelope.
		r.With(app.RateLimiterMiddleware).Post("/generate", app.generateHandler)

		r.Post("/sessions", app.createSessionHandler)

		// The OAuth relay pages carry no session token; the signed
		// state ties them to a session.
		r.Get("/meta/oauth/callback", app.metaOAuthCallbackHandler)
		r.Post("/meta/oauth/complete", app.metaOAuthCompleteHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.SessionTokenMiddleware)

			r.Get("/sessions", app.getSessionHandler)
			r.Post("/sessions/reset", app.resetSessionHandler)

			r.Route("/brand", func(r chi.Router) {
				r.Post("/start", app.startBrandInputHandler)
				r.Post("/", app.updateBrandHandler)
				r.Post("/names", app.suggestNamesHandler)
				r.Post("/image-prompts", app.suggestImagePromptsHandler)
				r.Post("/logo/generate", app.generateLogoHandler)
				r.Post("/logo", app.uploadLogoHandler)
				r.Post("/product/generate", app.generateProductImageHandler)
				r.Post("/product", app.uploadProductImageHandler)
			})

			r.Route("/concepts", func(r chi.Router) {
				r.Post("/generate", app.generateConceptsHandler)
				r.Post("/select", app.selectConceptHandler)
				r.Post("/visual", app.composeVisualHandler)
			})

			r.Post("/logo-position", app.setLogoPositionHandler)
			r.Post("/review", app.enterReviewHandler)

			r.Route("/settings", func(r chi.Router) {
				r.Post("/", app.updateSettingsHandler)
				r.Post("/save", app.saveSettingsHandler)
			})
			r.Post("/targeting/suggest", app.suggestTargetingHandler)

			r.Route("/meta", func(r chi.Router) {
				r.Post("/connect", app.metaConnectHandler)
				r.Get("/oauth/wait", app.metaOAuthWaitHandler)
				r.Post("/portfolio", app.selectPortfolioHandler)
				r.Post("/assets/select", app.selectAssetsHandler)
				r.Post("/launch", app.launchCampaignHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 150,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
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

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
