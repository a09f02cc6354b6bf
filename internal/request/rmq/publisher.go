package rmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"

	amqp "github.com/rabbitmq/amqp091-go"
)

func (c *Client) PublishRequestAssigned(ctx context.Context, msg mq.RequestAssignedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal assignment message: %w", err)
	}

	routingKey := fmt.Sprintf("request.assigned.%s", msg.DeveloperID)

	if err := c.Channel.ExchangeDeclare(
		c.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		logger.Error("publish_request_assigned", "Failed to declare exchange", "", msg.RequestID, err.Error())
		return err
	}

	if err := c.Channel.PublishWithContext(
		ctx,
		c.Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		logger.Error("publish_request_assigned", "Failed to publish assignment", "", msg.RequestID, err.Error())
		return err
	}

	logger.Info("publish_request_assigned", "Assignment published", "", msg.RequestID)
	return nil
}

func (c *Client) PublishStatusUpdate(ctx context.Context, msg mq.RequestStatusMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal status message: %w", err)
	}

	routingKey := fmt.Sprintf("request.status.%s", msg.RequestID)

	if err := c.Channel.ExchangeDeclare(
		c.Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		logger.Error("publish_status_update", "Failed to declare exchange", "", msg.RequestID, err.Error())
		return err
	}

	if err := c.Channel.PublishWithContext(
		ctx,
		c.Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		logger.Error("publish_status_update", "Failed to publish status update", "", msg.RequestID, err.Error())
		return err
	}

	return nil
}
