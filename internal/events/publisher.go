// Package events publishes committed ledger changes to an AMQP exchange so
// downstream consumers (cache invalidation, exports, notifications) can react
// without polling the ledger.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/finmax/ledger/internal/domain"
)

// Publisher fans committed changes out to a durable direct exchange, routed
// by entity type. It satisfies the engine's Notifier interface; publish
// failures are logged and never propagate, because the change is already
// committed by the time it reaches us.
type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: channel, exchange: exchange, logger: logger}, nil
}

// ChangeRecorded publishes one committed change. Called by the engine after
// the transaction commits.
func (p *Publisher) ChangeRecorded(ctx context.Context, change domain.Change) {
	body, err := NewChangeEvent(change).ToJSON()
	if err != nil {
		p.logger.Error("failed to marshal change event",
			zap.String("changeId", change.ID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		string(change.Entity), // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    change.At,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("failed to publish change event",
			zap.String("changeId", change.ID),
			zap.String("entity", string(change.Entity)),
			zap.Error(err))
		return
	}

	p.logger.Debug("published change event",
		zap.String("changeId", change.ID),
		zap.String("entity", string(change.Entity)),
		zap.Int64("version", change.Version))
}

// Close tears the channel and connection down.
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
