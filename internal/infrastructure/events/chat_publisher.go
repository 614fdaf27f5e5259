package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hilthontt/converse/internal/infrastructure/contracts"
	"github.com/hilthontt/converse/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// ChatPublisher mirrors presence and relay activity onto the chat exchange.
// It satisfies ws.EventSink; publishing is best-effort and never blocks the
// real-time path beyond the configured timeout.
type ChatPublisher struct {
	rabbitmq *messaging.RabbitMQ
	logger   *zap.SugaredLogger
}

func NewChatPublisher(rabbitmq *messaging.RabbitMQ, logger *zap.SugaredLogger) *ChatPublisher {
	return &ChatPublisher{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

func (p *ChatPublisher) UserOnline(userID string) {
	p.publishPresence(contracts.EventUserOnline, userID, "online")
}

func (p *ChatPublisher) UserOffline(userID string) {
	p.publishPresence(contracts.EventUserOffline, userID, "offline")
}

func (p *ChatPublisher) MessageRelayed(conversationID, senderID, messageID string) {
	payload := messaging.MessageEventData{
		ConversationID: conversationID,
		SenderID:       senderID,
		MessageID:      messageID,
		At:             time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Errorw("failed to marshal message event", "error", err)
		return
	}

	p.publish(contracts.EventMessageRelayed, contracts.AmqpMessage{
		UserID: senderID,
		Data:   data,
	})
}

func (p *ChatPublisher) publishPresence(routingKey, userID, status string) {
	payload := messaging.PresenceEventData{
		UserID: userID,
		Status: status,
		At:     time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Errorw("failed to marshal presence event", "error", err)
		return
	}

	p.publish(routingKey, contracts.AmqpMessage{
		UserID: userID,
		Data:   data,
	})
}

func (p *ChatPublisher) publish(routingKey string, msg contracts.AmqpMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.rabbitmq.PublishMessage(ctx, routingKey, msg); err != nil {
		p.logger.Warnw("failed to publish chat event", "routingKey", routingKey, "error", err)
	}
}
