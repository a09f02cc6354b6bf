package rmq

import (
	"encoding/json"
	"fmt"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
)

// ConsumeAssignments binds a queue to the request topic exchange and invokes
// handle for every assignment aimed at a developer. The developer service uses
// this to push new work to connected websocket clients.
func (c *Client) ConsumeAssignments(queueName string, handle func(mq.RequestAssignedMessage)) error {
	if err := c.Channel.ExchangeDeclare(
		c.Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := c.Channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.Channel.QueueBind(q.Name, "request.assigned.*", c.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := c.Channel.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		for d := range msgs {
			var msg mq.RequestAssignedMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logger.Warn("consume_assignment", "Failed to decode assignment message", "", "", err.Error())
				continue
			}
			handle(msg)
		}
	}()

	return nil
}
