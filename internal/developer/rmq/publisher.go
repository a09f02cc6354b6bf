package rmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"

	amqp "github.com/rabbitmq/amqp091-go"
)

const availabilityFanout = "availability_fanout"

func (c *Client) PublishAvailabilityChanged(ctx context.Context, msg mq.AvailabilityChangedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal availability message: %w", err)
	}

	if err := c.Channel.ExchangeDeclare(
		availabilityFanout,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		logger.Error("publish_availability", "Failed to declare exchange", "", msg.DeveloperID, err.Error())
		return err
	}

	if err := c.Channel.PublishWithContext(
		ctx,
		availabilityFanout,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		logger.Error("publish_availability", "Failed to publish availability change", "", msg.DeveloperID, err.Error())
		return err
	}

	logger.Info("publish_availability", "Availability change published", "", msg.DeveloperID)
	return nil
}

func (c *Client) PublishLocationUpdate(ctx context.Context, msg mq.LocationUpdateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal location message: %w", err)
	}

	exchange := "location_fanout"
	if err := c.Channel.ExchangeDeclare(
		exchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		logger.Error("publish_location_update", "Failed to declare exchange", "", msg.DeveloperID, err.Error())
		return err
	}

	if err := c.Channel.PublishWithContext(
		ctx,
		exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		logger.Error("publish_location_update", "Failed to publish location update", "", msg.DeveloperID, err.Error())
		return err
	}

	return nil
}
