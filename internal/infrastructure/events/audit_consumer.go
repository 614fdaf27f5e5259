package events

import (
	"context"
	"encoding/json"

	"github.com/hilthontt/converse/internal/infrastructure/contracts"
	"github.com/hilthontt/converse/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// auditConsumer drains the chat audit queue and writes each delivery to the
// service log. It exists so presence/relay activity survives somewhere other
// than the in-process registries.
type auditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	logger   *zap.SugaredLogger
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, logger *zap.SugaredLogger) *auditConsumer {
	return &auditConsumer{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

func (c *auditConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.AuditQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Warnw("failed to unmarshal audit delivery", "error", err)
			return err
		}

		c.logger.Infow("chat audit event",
			"routingKey", msg.RoutingKey,
			"userId", message.UserID,
			"data", json.RawMessage(message.Data),
		)

		return nil
	})
}
