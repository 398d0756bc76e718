package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/config"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/handlers"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/seed"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/service"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting cart engine server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"storage", cfg.Storage.Backend,
		"debit_stock", cfg.Order.DebitStock,
	)

	ctx := context.Background()

	// Seed data
	data, err := seed.Load(ctx, cfg.Seed.ProductsFile, cfg.Seed.CouponsFile)
	if err != nil {
		log.Error("failed to load seed data", "error", err)
		os.Exit(1)
	}

	seedProducts := repository.DefaultProducts()
	if data.Products != nil {
		seedProducts = data.Products
	}

	defaultCoupons := coupon.Defaults()
	if data.Coupons != nil {
		defaultCoupons = data.Coupons
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Storage backend
	var (
		productRepo repository.ProductRepository
		cartRepo    repository.CartRepository
		couponRepo  repository.CouponRepository
		checks      map[string]handlers.HealthCheck
	)
	switch cfg.Storage.Backend {
	case "redis":
		client, err := repository.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		redisProducts := repository.NewRedisProductRepository(client, cfg.Redis.KeyPrefix, seedProducts)
		if err := redisProducts.Init(ctx); err != nil {
			if !errors.Is(err, models.ErrMalformedState) {
				log.Error("failed to initialize product catalog", "error", err)
				os.Exit(1)
			}
			log.Warn("stored product catalog unreadable, reseeded", "error", err)
			m.ObserveRecovery("products")
		}

		productRepo = redisProducts
		cartRepo = repository.NewRedisCartRepository(client, cfg.Redis.KeyPrefix, cfg.Redis.CartTTL)
		couponRepo = repository.NewRedisCouponRepository(client, cfg.Redis.KeyPrefix)
		checks = map[string]handlers.HealthCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		log.Info("using redis storage", "key_prefix", cfg.Redis.KeyPrefix, "cart_ttl", cfg.Redis.CartTTL)
	default:
		productRepo = repository.NewInMemoryProductRepositoryWith(seedProducts)
		cartRepo = repository.NewInMemoryCartRepository()
		couponRepo = repository.NewInMemoryCouponRepository()
	}

	// Initialize services
	couponService := service.NewCouponService(couponRepo, defaultCoupons, log, m)
	couponService.Init(ctx)

	stats := couponService.Index().Stats()
	log.Info("coupon index built", "total_coupons", stats["total_coupons"])

	productService := service.NewProductService(productRepo, cartRepo)
	cartService := service.NewCartService(cartRepo, productRepo, couponService, log,
		service.WithStockDebit(cfg.Order.DebitStock),
		service.WithMetrics(m),
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log, checks)
	productHandler := handlers.NewProductHandler(productService, log)
	couponHandler := handlers.NewCouponHandler(couponService, log)
	cartHandler := handlers.NewCartHandler(cartService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)

		r.Route("/cart", cartHandler.Routes)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth, log))

			r.Put("/product", productHandler.UpsertProduct)
			r.Delete("/product/{productId}", productHandler.RemoveProduct)

			r.Get("/coupon", couponHandler.ListCoupons)
			r.Post("/coupon", couponHandler.AddCoupon)
			r.Get("/coupon/stats", couponHandler.GetStats)
			r.Delete("/coupon/{couponCode}", couponHandler.DeleteCoupon)
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
