// Command api runs the Footprint fulfillment API server.
package main

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
	"go.uber.org/zap"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/email"
	"github.com/footprint-shop/api/internal/handlers"
	"github.com/footprint-shop/api/internal/platform/config"
	"github.com/footprint-shop/api/internal/platform/observability"
	"github.com/footprint-shop/api/internal/platform/requestctx"
	"github.com/footprint-shop/api/internal/printfile"
	"github.com/footprint-shop/api/internal/repositories/postgres"
	"github.com/footprint-shop/api/internal/services"
	"github.com/footprint-shop/api/internal/shipping"
	"github.com/footprint-shop/api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("configuration is incomplete", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	registry, err := postgres.Open(cfg.Database.DSN, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	gateway, err := newStorageGateway(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialise storage gateway", zap.Error(err))
	}

	carriers := shipping.NewRegistry()
	carriers.Register(shipping.NewIsraelPost(shipping.IsraelPostConfig{
		BaseURL:    cfg.Shipping.IsraelPost.BaseURL,
		APIKey:     cfg.Shipping.IsraelPost.APIKey,
		CustomerID: cfg.Shipping.IsraelPost.CustomerID,
	}))
	if code := domain.CarrierCode(cfg.Shipping.DefaultCarrier); code != "" {
		if err := carriers.SetDefault(code); err != nil {
			logger.Fatal("default carrier is not registered",
				zap.String("carrier", cfg.Shipping.DefaultCarrier), zap.Error(err))
		}
	}

	logHook := observability.LogHook()

	var notifier services.Notifier
	if cfg.Email.ResendAPIKey != "" {
		sender, err := email.NewResend(email.ResendConfig{
			APIKey:    cfg.Email.ResendAPIKey,
			FromEmail: cfg.Email.FromEmail,
		})
		if err != nil {
			logger.Fatal("failed to initialise mail sender", zap.Error(err))
		}
		notifier, err = email.NewNotifier(sender, logHook)
		if err != nil {
			logger.Fatal("failed to initialise notifier", zap.Error(err))
		}
	} else {
		logger.Warn("resend api key not set, customer notifications disabled")
	}

	generator, err := printfile.NewStorageGenerator(gateway)
	if err != nil {
		logger.Fatal("failed to initialise print file generator", zap.Error(err))
	}
	packager, err := printfile.NewPackager(generator, printfile.NewHTTPFetcher(nil, 0))
	if err != nil {
		logger.Fatal("failed to initialise print file packager", zap.Error(err))
	}

	audit, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: registry.AuditLogs(),
		Logger:     logHook,
	})
	if err != nil {
		logger.Fatal("failed to initialise audit log service", zap.Error(err))
	}

	bulk, err := services.NewBulkService(services.BulkServiceDeps{
		Orders:   registry.Orders(),
		Packager: packager,
		Storage:  gateway,
		Audit:    audit,
		Notifier: notifier,
		Logger:   logHook,
	})
	if err != nil {
		logger.Fatal("failed to initialise bulk service", zap.Error(err))
	}

	shipments, err := services.NewShipmentService(services.ShipmentServiceDeps{
		Orders:     registry.Orders(),
		Shipments:  registry.Shipments(),
		UnitOfWork: registry,
		Carriers:   carriers,
		Audit:      audit,
		Notifier:   notifier,
		Sender:     senderProfile(cfg.Shipping),
		Logger:     logHook,
	})
	if err != nil {
		logger.Fatal("failed to initialise shipment service", zap.Error(err))
	}

	var verifier handlers.AdminVerifier
	if v := handlers.NewStaticTokenVerifier(cfg.Server.AdminAPIToken, requestctx.Actor{ID: "admin", Role: "admin"}); v != nil {
		verifier = v
	} else {
		logger.Warn("admin api token not set, admin endpoints are disabled")
	}

	general := handlers.NewWindowedRateLimiter(cfg.RateLimits.GeneralPerWindow, cfg.RateLimits.Window, nil)
	strict := handlers.NewWindowedRateLimiter(cfg.RateLimits.StrictPerWindow, cfg.RateLimits.Window, nil)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RecoveryMiddleware(logger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(registry.Health())),
		handlers.WithAdminMiddlewares(
			handlers.RequireAdmin(verifier),
			handlers.RateLimit(general),
		),
		handlers.WithAdminRoutes(func(r chi.Router) {
			handlers.NewAdminOrderHandlers(bulk, strict).Routes(r)
			handlers.NewAdminShipmentHandlers(shipments, strict).Routes(r)
			handlers.NewAdminAuditLogHandlers(audit).Routes(r)
		}),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("api server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		logger.Error("server failed", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}
}

func newStorageGateway(ctx context.Context, cfg config.StorageConfig) (storage.Gateway, error) {
	switch cfg.Backend {
	case "r2":
		return storage.NewR2Gateway(ctx, storage.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			Bucket:          cfg.R2.Bucket,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
	case "gcs":
		return storage.NewGCSGateway(ctx, storage.GCSConfig{
			Bucket:          cfg.GCS.Bucket,
			CredentialsFile: cfg.GCS.CredentialsFile,
			PublicBaseURL:   cfg.GCS.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func senderProfile(cfg config.ShippingConfig) services.SenderProfile {
	return services.SenderProfile{
		Address: domain.Address{
			Name:       cfg.Sender.Name,
			Street:     cfg.Sender.Street,
			City:       cfg.Sender.City,
			PostalCode: cfg.Sender.PostalCode,
			Phone:      cfg.Sender.Phone,
			Country:    cfg.Sender.Country,
		},
		Package: shipping.PackageDimensions{
			LengthCM: cfg.Package.LengthCM,
			WidthCM:  cfg.Package.WidthCM,
			HeightCM: cfg.Package.HeightCM,
			WeightG:  cfg.Package.WeightG,
		},
		Description: cfg.Description,
	}
}
