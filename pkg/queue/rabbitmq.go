package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeadLetterSuffix names the queue that receives messages a consumer rejects.
const DeadLetterSuffix = ".dead"

func ConnectRabbitMQ(uri string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return conn, ch, nil
}

// declareQueue declares a durable queue whose rejected messages are routed
// through the default exchange to queueName+DeadLetterSuffix. Publisher and
// consumer both call it, so the arguments must stay identical on both sides.
func declareQueue(ch *amqp.Channel, queueName string) error {
	deadLetter := queueName + DeadLetterSuffix
	if _, err := ch.QueueDeclare(deadLetter, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	_, err := ch.QueueDeclare(queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": deadLetter,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	return nil
}
