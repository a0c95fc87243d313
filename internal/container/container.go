package container

import (
	"context"
	"log/slog"
	"time"

	"github.com/mlopezr/catalog-api/app/firebase"
	"github.com/mlopezr/catalog-api/app/observability/metrics"
	"github.com/mlopezr/catalog-api/config"
	"github.com/mlopezr/catalog-api/internal/api"
	"github.com/mlopezr/catalog-api/internal/api/auth"
	"github.com/mlopezr/catalog-api/internal/api/product"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Clients        *firebase.Clients
	AuthHandler    *auth.AuthHandler
	ProductHandler *product.Handler
	UploadHandler  *product.UploadHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	clients, err := firebase.Init(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Firebase clients", slog.Any("error", err))
		return nil, err
	}

	metrics.InitAppMetrics()
	m := metrics.Get()

	// Error boundary: development mode returns raw messages; unexpected
	// failures are also persisted best-effort to the error-log collection.
	api.SetMode(cfg.IsDevelopment())
	errorLogs := clients.Firestore.Collection(cfg.Firebase.ErrorLogsCollection)
	api.SetErrorRecorder(func(ctx context.Context, entry api.ErrorLogEntry) {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, _, err := errorLogs.Add(writeCtx, entry); err != nil {
			logger.Warn("Failed to persist error log entry", slog.Any("error", err))
		}
	})

	// Initialize repositories
	authRepo := auth.NewFirestoreAuthRepo(clients.Firestore, cfg.Firebase.UsersCollection, logger)
	productRepo := product.NewFirestoreProductRepository(
		clients.Firestore,
		clients.Bucket,
		cfg.Firebase.StorageBucket,
		cfg.Firebase.ProductsCollection,
		m,
		logger,
	)

	// Initialize services
	authService := auth.NewAuthService(authRepo, cfg, logger)
	productService := product.NewProductService(productRepo, cfg.Cache.ProductTTL, cfg.Cache.CleanupInterval, logger)

	// Initialize handlers
	authHandler := auth.NewAuthHandler(authService, logger)
	productHandler := product.NewProductHandler(productService, m, logger)
	uploadHandler := product.NewUploadHandler(productHandler, clients.Bucket, cfg.Firebase.StorageBucket, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Clients:        clients,
		AuthHandler:    authHandler,
		ProductHandler: productHandler,
		UploadHandler:  uploadHandler,
	}, nil
}

// Close releases the container's external clients.
func (c *Container) Close() {
	if c.Clients != nil {
		c.Clients.Close()
	}
}
