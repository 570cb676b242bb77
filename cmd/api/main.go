package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"adcraft/internal/aiclient"
	"adcraft/internal/auth"
	"adcraft/internal/gemini"
	"adcraft/internal/mailer"
	"adcraft/internal/meta"
	"adcraft/internal/ratelimiter"
	"adcraft/internal/store"
	"adcraft/internal/workflow"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	// Default values
	defaultRequests := 60
	defaultEnabled := true

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            time.Minute,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

var version = "0.3.0"

//	@title			AdCraft API
//	@description	API for AdCraft, an AI-assisted ad creative and campaign launch tool.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	sessionTTL := store.DefaultSessionTTL
	if val := os.Getenv("SESSION_TTL"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			log.Fatalf("Invalid value for SESSION_TTL: %v", err)
		}
		sessionTTL = parsed
	}

	cfg := config{
		addr:        getenv("ADDR", ":8080"),
		env:         getenv("ENV", "development"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		auth: authConfig{
			basic: basicConfig{
				user:     os.Getenv("AUTH_BASIC_USER"),
				passHash: os.Getenv("AUTH_BASIC_PASS_HASH"),
			},
			token: tokenConfig{
				secret:      os.Getenv("AUTH_TOKEN_SECRET"),
				stateSecret: os.Getenv("AUTH_STATE_SECRET"),
				iss:         "AdCraft",
			},
		},
		meta: metaConfig{
			appID:       os.Getenv("META_APP_ID"),
			redirectURL: os.Getenv("META_REDIRECT_URL"),
			graphURL:    os.Getenv("META_GRAPH_URL"),
		},
		ai: aiConfig{
			geminiKey:  os.Getenv("GEMINI_API_KEY"),
			textModel:  os.Getenv("GEMINI_TEXT_MODEL"),
			imageModel: os.Getenv("GEMINI_IMAGE_MODEL"),
			proxyURL:   os.Getenv("AI_PROXY_URL"),
		},
		mail: mailConfig{
			enabled:   os.Getenv("MAILTRAP_API_KEY") != "",
			fromEmail: os.Getenv("MAIL_FROM_EMAIL"),
			notifyTo:  os.Getenv("MAIL_NOTIFY_TO"),
			mailtrap: mailTrapConfig{
				apiKey: os.Getenv("MAILTRAP_API_KEY"),
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
		sessionTTL:  sessionTTL,
	}

	// The proxy endpoint is a pure function of the serving origin
	// unless pinned explicitly.
	if cfg.ai.proxyURL == "" {
		cfg.ai.proxyURL = aiclient.ResolveEndpoint(os.Getenv("PUBLIC_ORIGIN"))
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Session storage lives in memory; sessions die with the process.
	storage := store.NewStorage(cfg.sessionTTL)

	//cloudinary
	cloudinaryUrl := os.Getenv("CLOUDINARY_URL")
	cld, err := cloudinary.NewFromURL(cloudinaryUrl)
	if err != nil {
		logger.Fatal(err)
	}

	// Generative backend behind the proxy endpoint. A missing key is
	// tolerated at boot and surfaced as 403 per generation request.
	var geminiEngine *gemini.Engine
	if cfg.ai.geminiKey != "" {
		geminiEngine, err = gemini.NewEngine(context.Background(),
			cfg.ai.geminiKey, cfg.ai.textModel, cfg.ai.imageModel)
		if err != nil {
			logger.Fatal(err)
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, generation requests will be rejected")
	}

	// client to send the launch confirmation email
	var mailClient mailer.Client
	if cfg.mail.enabled {
		mailClient, err = mailer.NewMailTrapClient(cfg.mail.mailtrap.apiKey, cfg.mail.fromEmail)
		if err != nil {
			logger.Fatal(err)
		}
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.stateSecret,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
	)

	refs, err := workflow.NewReferenceGenerator(cfg.auth.token.secret)
	if err != nil {
		logger.Fatal(err)
	}

	proxyClient := aiclient.NewClient(cfg.ai.proxyURL)
	engine := workflow.NewEngine(proxyClient, refs, logger)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         storage,
		engine:        engine,
		cld:           cld,
		mailer:        mailClient,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		loginBroker:   meta.NewLoginBroker(),
		oauth: meta.OAuthConfig{
			AppID:       cfg.meta.appID,
			RedirectURI: cfg.meta.redirectURL,
		},
		newGraph: func() workflow.GraphClient {
			return meta.NewClient(cfg.meta.graphURL, logger)
		},
	}
	// A typed nil in the interface field would defeat the configured
	// check, so the backend is only assigned when it exists.
	if geminiEngine != nil {
		app.gemini = geminiEngine
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("sessions", expvar.Func(func() any {
		return storage.Sessions.Count()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
