package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/client"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/config"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/handler"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/logger"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/notify"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/retry"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/server"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New("wedding-api", cfg.Log)
	ctx := context.Background()

	db, err := client.InitDatabase(cfg.Database)
	if err != nil {
		logg.Fatalf("init database: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	if cfg.Environment.IsDevelopment() {
		if err := productRepo.Seed(ctx); err != nil {
			logg.Warnf("seed catalog: %v", err)
		}
	}

	rdb, err := client.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logg.Warnf("redis unavailable, order status served from database: %v", err)
	}
	statusCache := repository.NewOrderStatusCache(rdb, cfg.Redis.StatusTTL)

	var notifier notify.Notifier = notify.NewLogNotifier(logg)
	var producer *client.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = client.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256, logg)
		producer.Start()
		notifier = notify.NewKafkaNotifier(producer)
	}

	dbRecorder := audit.NewDBRecorder(db, logg)
	recorder := audit.Multi(audit.NewLogRecorder(logg), dbRecorder)

	gatewayClient := client.NewGatewayClient(&cfg.Gateway)
	var cardGateway client.CardGateway = gatewayClient
	if cfg.BrainTree.Enabled() {
		logg.Info("card charges go through braintree")
		cardGateway = client.NewBraintreeClient(&cfg.BrainTree)
	}

	orderRepo := repository.NewOrderRepository(db)
	giftRepo := repository.NewGiftRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	accessService := service.NewAccessService(productRepo, repository.NewAccessRepository(db), logg)
	confirmer := service.NewPaymentConfirmer(db, orderRepo, giftRepo, accessService, statusCache, notifier, recorder, logg)
	customerResolver := service.NewCustomerResolver(
		repository.NewAccountRepository(db),
		profileRepo,
		recorder,
		logg,
		service.WithRetryPolicy(retry.Policy{
			Attempts:   cfg.Customer.RetryAttempts,
			Initial:    cfg.Customer.RetryBackoff,
			Multiplier: 2,
		}),
	)
	checkoutService := service.NewCheckoutService(
		service.NewPricingService(productRepo),
		service.NewCouponService(repository.NewCouponRepository(db)),
		customerResolver,
		orderRepo,
		gatewayClient,
		cardGateway,
		confirmer,
		recorder,
		logg,
	)
	giftService := service.NewGiftService(giftRepo, gatewayClient, recorder, logg)
	webhookService := service.NewWebhookService(
		cfg.Gateway.WebhookSecret,
		orderRepo,
		giftRepo,
		webhookEventRepo,
		confirmer,
		recorder,
		logg,
	)
	if cfg.Gateway.WebhookSecret == "" {
		logg.Warn("GATEWAY_WEBHOOK_SECRET not set, webhook calls are not authenticated")
	}

	srv := server.NewServer(
		handler.NewCheckoutHandler(checkoutService, giftService),
		handler.NewWebhookHandler(webhookService),
		handler.NewOrderHandler(service.NewOrderService(orderRepo, statusCache)),
		handler.NewUserHandler(service.NewUserService(profileRepo)),
		server.Options{Logger: logg, RequestTimeout: cfg.HTTP.RequestTimeout},
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	logg.Infof("Starting HTTP server on %s", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logg.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logg.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Errorf("HTTP server shutdown error: %v", err)
	}

	confirmer.Wait()
	dbRecorder.Close()
	if producer != nil {
		producer.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
