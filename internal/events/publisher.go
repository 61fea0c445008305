// Package events publishes loyalty activity to a message broker so that
// downstream consumers (analytics, CRM) can follow point movement without
// querying the service. Publishing is best effort: a broker failure is
// logged and never surfaced to the caller.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/retailops/loyalty-service/internal/config"
	"github.com/retailops/loyalty-service/internal/domain"
)

// Routing keys for published events
const (
	RoutingKeyPointsBurned   = "loyalty.points.burned"
	RoutingKeyPurchaseClosed = "loyalty.purchase.closed"
)

// Publisher emits loyalty events after a successful mutation.
type Publisher interface {
	PointsBurned(ctx context.Context, tx domain.Transaction)
	PurchaseClosed(ctx context.Context, accountID, purchaseID uuid.UUID, summary domain.PurchaseSummary)
	Close() error
}

// PointsBurnedEvent is the payload published for a burn transaction.
type PointsBurnedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     uuid.UUID `json:"account_id"`
	PurchaseID    uuid.UUID `json:"purchase_id"`
	Points        int64     `json:"points"`
	Timestamp     string    `json:"timestamp"`
}

// PurchaseClosedEvent is the payload published when a purchase is closed.
type PurchaseClosedEvent struct {
	AccountID      uuid.UUID `json:"account_id"`
	PurchaseID     uuid.UUID `json:"purchase_id"`
	BalanceOpening int64     `json:"balance_opening"`
	BurnedPoints   int64     `json:"burned_points"`
	EarnedPoints   int64     `json:"earned_points"`
	BalanceClosing int64     `json:"balance_closing"`
	Timestamp      string    `json:"timestamp"`
}

// AMQP publishes events to a durable topic exchange on RabbitMQ.
type AMQP struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewAMQP connects to the broker and declares the exchange.
func NewAMQP(cfg config.EventsConfig, logger *slog.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("event publisher initialized", "exchange", cfg.Exchange)

	return &AMQP{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// PointsBurned publishes a burn event.
func (p *AMQP) PointsBurned(ctx context.Context, tx domain.Transaction) {
	p.publish(ctx, RoutingKeyPointsBurned, PointsBurnedEvent{
		TransactionID: tx.TransactionID,
		AccountID:     tx.AccountID,
		PurchaseID:    tx.PurchaseID,
		Points:        tx.Amount,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// PurchaseClosed publishes a purchase summary event.
func (p *AMQP) PurchaseClosed(ctx context.Context, accountID, purchaseID uuid.UUID, summary domain.PurchaseSummary) {
	p.publish(ctx, RoutingKeyPurchaseClosed, PurchaseClosedEvent{
		AccountID:      accountID,
		PurchaseID:     purchaseID,
		BalanceOpening: summary.BalanceOpening,
		BurnedPoints:   summary.BurnedPoints,
		EarnedPoints:   summary.EarnedPoints,
		BalanceClosing: summary.BalanceClosing,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *AMQP) publish(ctx context.Context, routingKey string, event any) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode event", "routing_key", routingKey, "error", err)
		return
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("failed to publish event", "routing_key", routingKey, "error", err)
	}
}

// Close closes the RabbitMQ channel and connection.
func (p *AMQP) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error("failed to close channel", "error", err)
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop is the publisher used when events are disabled.
type Nop struct{}

func (Nop) PointsBurned(context.Context, domain.Transaction) {}

func (Nop) PurchaseClosed(context.Context, uuid.UUID, uuid.UUID, domain.PurchaseSummary) {}

func (Nop) Close() error { return nil }
