// Command notifier consumes order notifications from Kafka and hands them to
// the backend email function.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/IGSolution/carehappyfarmsdemo/internal/config"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/notify"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.SetDefault(log)

	client, err := gateway.New(gateway.Config{
		URL:    cfg.Backend.URL,
		APIKey: cfg.Backend.ServiceOrAnonKey(),
		HTTPClient: &http.Client{
			Timeout:   cfg.Backend.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Retry: gateway.DefaultRetryConfig(),
	})
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	consumer := notify.NewConsumer(client.Functions(), cfg.Notify.KafkaTopic, cfg.Notify.Brokers()...)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("topic", cfg.Notify.KafkaTopic).Info("notifier consuming")
	consumer.Run(ctx)
	log.Info("notifier stopped")
}
