// Package amqp ingests upstream control commands over AMQP and turns
// them into façade control mutations, generalizing the teacher's
// internal/handler/amqp: a Watermill router bound to a durable queue,
// one NoPublishHandlerFunc per routing key, fx lifecycle hooks running
// the router in the background and closing it on shutdown.
package amqp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	amqptransport "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Config names the exchange/queue/routing key this service consumes
// control intents from.
type Config struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
}

// NewSubscriber builds a durable Watermill subscriber bound to cfg's
// queue, declaring the queue against cfg's exchange/routing key so
// redelivery and fan-out semantics match the rest of the bus.
func NewSubscriber(cfg Config, logger *slog.Logger) (message.Subscriber, error) {
	amqpCfg := amqptransport.NewDurableQueueConfig(cfg.URL)
	amqpCfg.Exchange = amqptransport.ExchangeConfig{
		GenerateName: func(string) string { return cfg.Exchange },
		Type:         "topic",
		Durable:      true,
	}
	amqpCfg.Queue = amqptransport.QueueConfig{
		GenerateName: func(string) string { return cfg.Queue },
		Durable:      true,
	}
	amqpCfg.QueueBind = amqptransport.QueueBindConfig{
		GenerateRoutingKey: func(string) string { return cfg.RoutingKey },
	}

	sub, err := amqptransport.NewSubscriber(amqpCfg, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("ingest/amqp: new subscriber: %w", err)
	}
	return sub, nil
}

// NewRouter builds the Watermill router the handler is registered on.
func NewRouter(logger *slog.Logger) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("ingest/amqp: new router: %w", err)
	}
	return router, nil
}

// RegisterControlIntentHandler wires the control-intent handler to
// cfg's routing key on router, consuming from sub.
func RegisterControlIntentHandler(router *message.Router, sub message.Subscriber, cfg Config, h *Handler) {
	router.AddNoPublisherHandler(
		"control_intent_v1",
		cfg.RoutingKey,
		sub,
		bindControlIntentV1(h),
	)
}

// Run starts the router and blocks until ctx is cancelled or the
// router errors. Intended to be launched in its own goroutine by an fx
// OnStart hook, matching the teacher's module.go lifecycle shape.
func Run(ctx context.Context, router *message.Router) error {
	return router.Run(ctx)
}
