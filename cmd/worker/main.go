package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Toni1004/Derbit-JP-Test/internal/broker"
	"github.com/Toni1004/Derbit-JP-Test/internal/config"
	"github.com/Toni1004/Derbit-JP-Test/internal/db"
	"github.com/Toni1004/Derbit-JP-Test/internal/external"
	"github.com/Toni1004/Derbit-JP-Test/internal/notifications"
	"github.com/Toni1004/Derbit-JP-Test/internal/repository"
	"github.com/Toni1004/Derbit-JP-Test/internal/scheduler"
	"github.com/Toni1004/Derbit-JP-Test/internal/service"
)

const banner = `
╔══════════════════════════════════════╗
║      Deribit Price Worker v1.0       ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg.Print()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Schema setup failed: %v\n", err)
		os.Exit(1)
	}

	// Broker: optional at runtime, the worker keeps fetching without it
	var tickBroker scheduler.TickBroker
	if b, err := broker.Connect(context.Background(), cfg.BrokerURL()); err != nil {
		fmt.Fprintf(os.Stderr, "[BROKER] Unavailable, tick state will be logged only: %v\n", err)
	} else {
		defer b.Close()
		tickBroker = b
	}

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	defer notify.Close()

	// Service
	client := external.NewDeribitClient(cfg.DeribitAPIURL)
	svc := service.NewPriceService(client, repository.NewPriceRepo(pool))
	defer svc.Close()

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewPriceScheduler(svc, tickBroker, notify, scheduler.PriceSchedulerConfig{})
	sched.Start()

	fmt.Println("\nWorker started successfully")

	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")
	sched.Stop()
	fmt.Println("Shutdown complete")
}
