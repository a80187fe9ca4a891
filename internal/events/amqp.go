package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes events to a topic exchange, routed by event type
// (e.g. "rewards.stx_transfer_event").
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// RoutingKey is the topic an event is published under.
func RoutingKey(ev models.Event) string {
	return "rewards." + string(ev.Type)
}

func (p *AMQPPublisher) Publish(ctx context.Context, events []models.Event) error {
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev), false, false, amqp.Publishing{
			ContentType: "application/json",
			MessageId:   fmt.Sprintf("%s/%d", ev.TxID, ev.Index),
			Body:        b,
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", RoutingKey(ev), err)
		}
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
