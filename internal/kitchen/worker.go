package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"restaurant-orders/internal/backoff"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/repository"
)

// Worker consumes one order message at a time and drives the order through
// Preparing -> Ready for Pickup -> Completed, persisting each transition.
// A failed attempt rolls the status back to In Queue and retries the same
// unacknowledged message in place, with exponential backoff and no attempt
// cap; the worker stays occupied by that one order until it succeeds.
type Worker struct {
	id       int
	store    repository.OrderStore
	sessions SessionFactory
	log      *zap.Logger

	// Tunables, exported for tests; production uses the defaults.
	Sleep          backoff.SleepFunc
	PostReadyDelay time.Duration
	RestartDelay   time.Duration
}

func NewWorker(id int, store repository.OrderStore, sessions SessionFactory, log *zap.Logger) *Worker {
	return &Worker{
		id:       id,
		store:    store,
		sessions: sessions,
		log:      log.With(zap.Int("worker", id)),

		Sleep:          backoff.Sleep,
		PostReadyDelay: 2 * time.Second,
		RestartDelay:   5 * time.Second,
	}
}

// Run consumes until ctx is canceled. The ready channel is closed once the
// first consumer registration succeeds; if that first setup fails, Run
// returns the error so the pool can abort startup. Later session losses are
// handled by a full restart after RestartDelay.
func (w *Worker) Run(ctx context.Context, ready chan<- struct{}) error {
	first := true
	for {
		sess, err := w.sessions(ctx)
		if err != nil {
			if first {
				return fmt.Errorf("worker %d: start consumer: %w", w.id, err)
			}
			w.log.Error("worker restart failed", zap.Error(err))
			if w.Sleep(ctx, w.RestartDelay) != nil {
				return nil
			}
			continue
		}
		if first {
			w.log.Info("worker consuming")
			if ready != nil {
				close(ready)
			}
			first = false
		}

		if alive := w.consume(ctx, sess); !alive {
			return nil
		}

		// restart from scratch only after the fixed delay
		if w.Sleep(ctx, w.RestartDelay) != nil {
			return nil
		}
		w.log.Info("worker restarting")
	}
}

// consume drains one session. It returns false when ctx ended and the worker
// should exit, true when the session was lost and a restart is due.
func (w *Worker) consume(ctx context.Context, sess Session) bool {
	defer sess.Close()
	for {
		select {
		case <-ctx.Done():
			return false
		case e := <-sess.Closed():
			if e != nil {
				w.log.Error("broker connection lost",
					zap.Int("code", e.Code), zap.String("reason", e.Reason))
			} else {
				w.log.Error("broker connection lost")
			}
			return true
		case d, ok := <-sess.Deliveries():
			if !ok {
				w.log.Error("delivery channel closed")
				return true
			}
			w.process(ctx, d)
			if ctx.Err() != nil {
				return false
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	var msg domain.OrderMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.ID == "" {
		// a body that cannot name an order can never advance one;
		// requeueing it would redeliver forever
		w.log.Error("dropping unprocessable message",
			zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Ack(false)
		return
	}
	w.log.Info("order received", zap.String("order_id", msg.ID))

	for attempt := 0; ; attempt++ {
		err := w.fulfill(ctx, msg)
		if err == nil {
			// the message leaves the queue only after Completed is persisted
			_ = d.Ack(false)
			w.log.Info("order completed", zap.String("order_id", msg.ID))
			return
		}
		if ctx.Err() != nil {
			return
		}

		retryCount := attempt + 1
		reason := err.Error()
		if _, uerr := w.store.UpsertStatus(ctx, msg.ID, repository.StatusUpdate{
			Status:     domain.StatusInQueue,
			LastError:  &reason,
			RetryCount: &retryCount,
		}); uerr != nil {
			w.log.Error("status rollback failed",
				zap.String("order_id", msg.ID), zap.Error(uerr))
		}

		delay := backoff.Delay(attempt + 2)
		w.log.Warn("fulfillment failed, retrying same message",
			zap.String("order_id", msg.ID),
			zap.Int("retry_count", retryCount),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if w.Sleep(ctx, delay) != nil {
			return
		}
	}
}

func (w *Worker) fulfill(ctx context.Context, msg domain.OrderMessage) error {
	if _, err := w.store.UpsertStatus(ctx, msg.ID, repository.StatusUpdate{Status: domain.StatusPreparing}); err != nil {
		return fmt.Errorf("mark preparing: %w", err)
	}
	if err := w.Sleep(ctx, EstimatePrepTime(msg.Items)); err != nil {
		return err
	}
	if _, err := w.store.UpsertStatus(ctx, msg.ID, repository.StatusUpdate{Status: domain.StatusReady}); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	if err := w.Sleep(ctx, w.PostReadyDelay); err != nil {
		return err
	}
	if _, err := w.store.UpsertStatus(ctx, msg.ID, repository.StatusUpdate{Status: domain.StatusCompleted}); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}
