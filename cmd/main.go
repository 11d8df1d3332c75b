package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/handler"
	"github.com/mstgnz/brqpay/infra/config"
	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/infra/middle"
	"github.com/mstgnz/brqpay/infra/opensearch"
	"github.com/mstgnz/brqpay/infra/response"
	"github.com/mstgnz/brqpay/infra/storage"
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
	"github.com/mstgnz/brqpay/push"
	"github.com/mstgnz/brqpay/refund"
	"github.com/mstgnz/brqpay/router"
	v1 "github.com/mstgnz/brqpay/router/v1"
)

var (
	cfg              *config.AppConfig
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env; deployments may inject variables directly
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	// init conf
	_ = config.App()
	cfg = config.GetAppConfig()

	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchLogger = opensearch.NewLogger(osClient)
		}
	}
	logger.InitGlobalLogger(openSearchLogger)
}

func main() {
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration rejected", err)
	}

	db, err := storage.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to open database", err)
	}
	defer db.Close()

	book := ledger.New(db.Ledger())
	locker := &order.Locker{}

	pushService := push.NewService(push.ServiceConfig{
		Verifier: push.NewVerifier(cfg.WebsiteKey, cfg.SecretKey),
		Orders:   db.Orders(),
		Ledger:   book,
		Locker:   locker,
		LiveMode: cfg.LiveMode,
	})

	gatewayClient, err := gateway.NewClient(gateway.Config{
		WebsiteKey: cfg.WebsiteKey,
		SecretKey:  cfg.SecretKey,
		BaseURL:    cfg.GatewayURL,
	})
	if err != nil {
		logger.Fatal("Failed to create gateway client", err)
	}

	refundService := refund.NewService(refund.ServiceConfig{
		Orders: db.Orders(),
		Ledger: book,
		Locker: locker,
		Builder: refund.NewBuilder(refund.BuilderConfig{
			ReturnURL:      cfg.ReturnURL,
			ReturnURLError: cfg.ReturnURLError,
			PushURL:        cfg.PushURL,
			AfterpayLegacy: cfg.AfterpayLegacy,
		}),
		Gateway: gatewayClient,
	})

	handlers := v1.Handlers{
		Order:  handler.NewOrderHandler(order.NewService(db.Orders(), locker), config.App().Validator),
		Refund: handler.NewRefundHandler(refundService, config.App().Validator),
	}
	if openSearchLogger != nil {
		handlers.Logs = handler.NewLogsHandler(openSearchLogger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.IPWhitelistMiddleware())
	r.Use(middle.RateLimitMiddleware(middle.NewRateLimiter(ctx)))
	r.Use(middle.RequestValidationMiddleware())

	if openSearchLogger != nil {
		r.Use(middle.AuditMiddleware(openSearchLogger))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Gateway pushes and health checks carry no API key
	r.With(middle.PanicRecoveryWithHandler(middle.PushPanicHandler)).
		Post(middle.PushPath, handler.NewPushHandler(pushService).HandlePush)
	r.Get("/health", handler.NewHealthHandler(db, openSearchLogger != nil).CheckHealth)

	router.Routes(r, cfg.APIKey, handlers)

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Response{Success: false, Message: "Not Found"})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server stopped", err)
		}
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{
		"port":      cfg.Port,
		"live_mode": cfg.LiveMode,
	}})

	// Block until a signal is received
	<-ctx.Done()

	logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
	}
}
