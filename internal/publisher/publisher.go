package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"restaurant-orders/internal/backoff"
	"restaurant-orders/internal/connections/rabbitmq"
	"restaurant-orders/internal/domain"
)

// Channel is the slice of amqp091.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ChannelSource hands out a usable channel and forgets broken ones.
type ChannelSource interface {
	Channel() (Channel, error)
	Invalidate()
}

// Publisher hands order messages to the broker. A failed attempt (connect,
// declare, or send) is retried after an exponential backoff of 2^(attempt+1)
// seconds; with MaxAttempts at 0 the loop never gives up and the caller
// blocks until the message is published or the context is canceled.
type Publisher struct {
	source      ChannelSource
	queue       string
	maxAttempts int
	sleep       backoff.SleepFunc
	log         *zap.Logger
}

func New(cm *rabbitmq.ConnManager, queue string, maxAttempts int, log *zap.Logger) *Publisher {
	return NewWithSource(managerSource{cm}, queue, maxAttempts, backoff.Sleep, log)
}

// NewWithSource wires an explicit channel source and sleep function;
// production callers go through New.
func NewWithSource(src ChannelSource, queue string, maxAttempts int, sleep backoff.SleepFunc, log *zap.Logger) *Publisher {
	return &Publisher{
		source:      src,
		queue:       queue,
		maxAttempts: maxAttempts,
		sleep:       sleep,
		log:         log,
	}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err := p.attempt(ctx, body)
		if err == nil {
			if attempt > 0 {
				p.log.Info("order published after retries",
					zap.String("order_id", msg.ID), zap.Int("attempts", attempt+1))
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.source.Invalidate()
		if p.maxAttempts > 0 && attempt+1 >= p.maxAttempts {
			return fmt.Errorf("publish order %s: %d attempts exhausted: %w", msg.ID, p.maxAttempts, err)
		}

		delay := backoff.Delay(attempt + 1)
		p.log.Warn("publish failed, backing off",
			zap.String("order_id", msg.ID),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (p *Publisher) attempt(ctx context.Context, body []byte) error {
	ch, err := p.source.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

type managerSource struct{ cm *rabbitmq.ConnManager }

func (s managerSource) Channel() (Channel, error) { return s.cm.Channel() }
func (s managerSource) Invalidate()               { s.cm.Invalidate() }
