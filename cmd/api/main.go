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

	"checkout-service/internal/client"
	"checkout-service/internal/config"
	"checkout-service/internal/repository"
	"checkout-service/internal/server"
	"checkout-service/internal/service"

	"github.com/caarlos0/env/v10"
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

	db := client.InitDB(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.Environment.IsDevelopment() {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Fatal("seed products:", err)
		}
	}

	discountService := service.NewDiscountService(discountRepo)
	checkoutService := service.NewCheckoutService(
		db, stripeClient, cfg.BaseURL,
		productRepo, orderRepo, discountRepo, discountService,
	)
	webhookService := service.NewWebhookService(
		db, stripeClient,
		orderRepo, discountRepo, webhookEventRepo,
	)
	orderService := service.NewOrderService(db, orderRepo, discountRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(cfg, checkoutService, webhookService, discountService, orderService)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
