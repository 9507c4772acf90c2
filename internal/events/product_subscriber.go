// Package events keeps cached catalog data fresh by listening for product and
// inventory changes on NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// ProductInvalidator drops cached product data
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, productID string) error
}

// ProductEvent represents a product change event
type ProductEvent struct {
	EventType string    `json:"eventType"`
	TenantID  string    `json:"tenantId"`
	Timestamp time.Time `json:"timestamp"`
	ProductID string    `json:"productId"`
	Price     float64   `json:"price,omitempty"`
	Status    string    `json:"status,omitempty"`
}

// InventoryEvent represents a stock change event
type InventoryEvent struct {
	EventType string          `json:"eventType"`
	TenantID  string          `json:"tenantId"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []InventoryItem `json:"items"`
}

// InventoryItem represents a product with stock info
type InventoryItem struct {
	ProductID    string `json:"productId"`
	SKU          string `json:"sku"`
	CurrentStock int    `json:"currentStock"`
}

// ProductSubscriber invalidates cached products when the catalog changes
type ProductSubscriber struct {
	nc           *nats.Conn
	js           jetstream.JetStream
	invalidator  ProductInvalidator
	consumerName string
	logger       *logrus.Entry
	cancel       context.CancelFunc
}

// NewProductSubscriber connects to natsURL and prepares a JetStream context
func NewProductSubscriber(natsURL string, invalidator ProductInvalidator, logger *logrus.Logger) (*ProductSubscriber, error) {
	log := logger.WithField("component", "product-subscriber")

	nc, err := nats.Connect(natsURL,
		nats.Name("storefront-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectBufSize(8*1024*1024),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.WithError(err).Error("NATS error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	hostname, _ := os.Hostname()

	return &ProductSubscriber{
		nc:           nc,
		js:           js,
		invalidator:  invalidator,
		consumerName: fmt.Sprintf("storefront-cache-%s", hostname),
		logger:       log,
	}, nil
}

// Start begins consuming product and inventory events in the background
func (s *ProductSubscriber) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.ensureStreams(ctx)

	go s.consume(ctx, "PRODUCT_EVENTS", "product.>", "-products", s.HandleProductEvent)
	go s.consume(ctx, "INVENTORY_EVENTS", "inventory.>", "-inventory", s.HandleInventoryEvent)

	s.logger.Info("Product event subscriber started")
	return nil
}

// Stop stops consuming and closes the NATS connection
func (s *ProductSubscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.nc != nil {
		s.nc.Close()
	}
	s.logger.Info("Product event subscriber stopped")
}

func (s *ProductSubscriber) ensureStreams(ctx context.Context) {
	streams := []jetstream.StreamConfig{
		{Name: "PRODUCT_EVENTS", Subjects: []string{"product.>"}},
		{Name: "INVENTORY_EVENTS", Subjects: []string{"inventory.>"}},
	}
	for _, cfg := range streams {
		cfg.Retention = jetstream.LimitsPolicy
		cfg.MaxAge = 7 * 24 * time.Hour
		cfg.Storage = jetstream.FileStorage
		cfg.Replicas = 1
		if _, err := s.js.CreateOrUpdateStream(ctx, cfg); err != nil {
			s.logger.WithError(err).WithField("stream", cfg.Name).Warn("Could not create stream")
		}
	}
}

func (s *ProductSubscriber) consume(ctx context.Context, stream, subject, suffix string, handle func(context.Context, []byte) error) {
	log := s.logger.WithField("stream", stream)

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		Durable:       s.consumerName + suffix,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to create consumer")
		return
	}

	msgs, err := consumer.Messages()
	if err != nil {
		log.WithError(err).Warn("Failed to get messages iterator")
		return
	}

	for {
		select {
		case <-ctx.Done():
			msgs.Stop()
			return
		default:
			msg, err := msgs.Next()
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("Error getting next message")
				time.Sleep(time.Second)
				continue
			}

			if err := handle(ctx, msg.Data()); err != nil {
				log.WithError(err).WithField("subject", msg.Subject()).Error("Error handling event")
				_ = msg.Nak()
			} else {
				_ = msg.Ack()
			}
		}
	}
}

// HandleProductEvent invalidates the cached copy of the changed product
func (s *ProductSubscriber) HandleProductEvent(ctx context.Context, data []byte) error {
	var event ProductEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal product event: %w", err)
	}
	if event.ProductID == "" {
		s.logger.WithField("event_type", event.EventType).Debug("Ignoring product event without product id")
		return nil
	}

	switch event.EventType {
	case "product.updated", "product.deleted", "product.archived":
		if err := s.invalidator.InvalidateProduct(ctx, event.ProductID); err != nil {
			return fmt.Errorf("failed to invalidate product %s: %w", event.ProductID, err)
		}
		s.logger.WithFields(logrus.Fields{
			"event_type": event.EventType,
			"product_id": event.ProductID,
		}).Debug("Invalidated cached product")
	}
	return nil
}

// HandleInventoryEvent invalidates products whose stock label may have changed
func (s *ProductSubscriber) HandleInventoryEvent(ctx context.Context, data []byte) error {
	var event InventoryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal inventory event: %w", err)
	}

	var errs []error
	for _, item := range event.Items {
		if item.ProductID == "" {
			continue
		}
		if err := s.invalidator.InvalidateProduct(ctx, item.ProductID); err != nil {
			errs = append(errs, fmt.Errorf("product %s: %w", item.ProductID, err))
		}
	}
	return errors.Join(errs...)
}
