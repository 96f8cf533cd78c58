package rabbitmq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnManager owns the single shared connection/channel pair used by the
// publishing side. The pair is established lazily on the first Channel call
// and re-established whenever the cached connection is found unusable.
type ConnManager struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConnManager(url string, log *zap.Logger) *ConnManager {
	return &ConnManager{url: url, log: log}
}

// Channel returns a healthy channel, dialing a fresh connection when the
// cached one is missing or closed. There is no proactive reconnect; a broken
// connection is only repaired by the next call.
func (m *ConnManager) Channel() (*amqp.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() && m.ch != nil && !m.ch.IsClosed() {
		return m.ch, nil
	}
	m.closeLocked()

	conn, err := amqp.Dial(m.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if e := <-closes; e != nil {
			m.log.Warn("rabbitmq connection closed",
				zap.Int("code", e.Code), zap.String("reason", e.Reason))
		}
		m.Invalidate()
	}()

	m.conn, m.ch = conn, ch
	m.log.Info("rabbitmq connected")
	return m.ch, nil
}

// Invalidate drops the cached pair so the next Channel call re-dials.
func (m *ConnManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *ConnManager) Close() {
	m.Invalidate()
}

func (m *ConnManager) closeLocked() {
	if m.ch != nil {
		_ = m.ch.Close()
		m.ch = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}
