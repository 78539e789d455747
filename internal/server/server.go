package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"kantin-kiosk/internal/cache"
	"kantin-kiosk/internal/checkout"
	"kantin-kiosk/internal/config"
	custommiddleware "kantin-kiosk/internal/middleware"
	"kantin-kiosk/internal/oracle"
	"kantin-kiosk/internal/repository"
	"kantin-kiosk/internal/service"
	"kantin-kiosk/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      *sql.DB
	redis   *redis.Client
	manager *checkout.Manager
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.RequestLogger(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Product listing cache
	productCache := cache.NewProductCache(redisClient, cfg.Kiosk.ProductCacheTTL, logger)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	catalogService := service.NewCatalogService(productRepo, productCache, logger)
	salesService := service.NewSalesService(transactionRepo)

	// Payment-proof oracle and checkout workflow
	validator := oracle.NewGeminiValidator(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.Timeout, logger)
	manager := checkout.NewManager(cfg.Kiosk.SessionTTL, logger)
	workflow := checkout.NewWorkflow(
		validator,
		transactionRepo,
		productRepo,
		productCache,
		cfg.Gemini.Timeout,
		cfg.Kiosk.MaxProofBytes,
		logger,
	)

	// The proof endpoint drives a paid oracle call per request, so it gets
	// its own throttle.
	proofLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:proof",
	}, logger)

	// Initialize handlers
	shopHandler := transport.NewShopHandler(catalogService, manager, workflow, logger)
	dashboardHandler := transport.NewDashboardHandler(authService, catalogService, salesService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Register routes
	shopHandler.RegisterRoutes(router, proofLimiter)
	dashboardHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		db:      db,
		redis:   redisClient,
		manager: manager,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Stop the session expiry sweep
	if s.manager != nil {
		s.manager.Stop()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
