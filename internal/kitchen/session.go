package kitchen

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Session is one live consumer registration on the broker: a dedicated
// connection and channel with a durable queue declared, prefetch fixed at 1
// and manual acknowledgment. A worker that loses its session abandons any
// in-flight message to the broker's redelivery and builds a new session from
// scratch.
type Session interface {
	Deliveries() <-chan amqp.Delivery
	Closed() <-chan *amqp.Error
	Close()
}

// SessionFactory builds a fresh Session. The context covers setup only.
type SessionFactory func(ctx context.Context) (Session, error)

type amqpSession struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
	closed     chan *amqp.Error
}

// NewSessionFactory returns the production factory: dial, open a channel,
// declare the durable queue, set Qos(1), register a manual-ack consumer.
func NewSessionFactory(url, queue string, workerID int) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open channel: %w", err)
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// exactly one unacknowledged message per worker at a time
		if err := ch.Qos(1, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set prefetch: %w", err)
		}

		tag := fmt.Sprintf("kitchen-worker-%d", workerID)
		deliveries, err := ch.Consume(queue, tag, false, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("register consumer %s: %w", tag, err)
		}

		closed := make(chan *amqp.Error, 1)
		conn.NotifyClose(closed)

		return &amqpSession{conn: conn, ch: ch, deliveries: deliveries, closed: closed}, nil
	}
}

func (s *amqpSession) Deliveries() <-chan amqp.Delivery { return s.deliveries }
func (s *amqpSession) Closed() <-chan *amqp.Error       { return s.closed }

func (s *amqpSession) Close() {
	_ = s.ch.Close()
	_ = s.conn.Close()
}
