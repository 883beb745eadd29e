package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	AlertsExchange = "kitchen_alerts"
	AlertsQueue    = "kitchen_alerts.q"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// Confirms makes every publish wait for the broker ack.
	Confirms bool
}

func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	mu   sync.Mutex
	acks <-chan amqp.Confirmation
}

func Dial(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	c := &Client{conn: conn, ch: ch}
	if cfg.Confirms {
		if err := ch.Confirm(false); err != nil {
			c.Close()
			return nil, fmt.Errorf("enable publisher confirms: %w", err)
		}
		c.acks = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	}
	return c, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) Ping() error {
	if c == nil || c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// DeclareAlerts declares the alert fanout exchange and its durable queue.
func (c *Client) DeclareAlerts() error {
	if c == nil || c.ch == nil {
		return errors.New("nil channel")
	}
	if err := c.ch.ExchangeDeclare(AlertsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", AlertsExchange, err)
	}
	if _, err := c.ch.QueueDeclare(AlertsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", AlertsQueue, err)
	}
	if err := c.ch.QueueBind(AlertsQueue, "", AlertsExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", AlertsQueue, err)
	}
	return nil
}

// PublishJSON publishes v as a persistent JSON message and returns the
// generated message id.
func (c *Client) PublishJSON(ctx context.Context, exchange, key string, v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	msg := NewJSONMessage(body)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", exchange, err)
	}
	if c.acks == nil {
		return msg.MessageId, nil
	}
	select {
	case conf := <-c.acks:
		if !conf.Ack {
			return "", fmt.Errorf("publish to %s: broker nack", exchange)
		}
		return msg.MessageId, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func NewJSONMessage(body []byte) amqp.Publishing {
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	}
}

func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
