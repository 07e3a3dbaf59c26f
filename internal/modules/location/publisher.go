// README: RabbitMQ notifier publishing jeep.location.updated events.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const locationUpdatedRoutingKey = "jeep.location.updated"

var _ Notifier = (*AMQPPublisher)(nil)

type AMQPPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

type locationEvent struct {
	JeepID    string  `json:"jeep_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

func (p *AMQPPublisher) Notify(ctx context.Context, loc VehicleLocation) error {
	body, err := json.Marshal(locationEvent{
		JeepID:    string(loc.ID),
		Latitude:  loc.Position.Lat,
		Longitude: loc.Position.Lng,
		Timestamp: loc.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal location event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, locationUpdatedRoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   loc.UpdatedAt,
		Body:        body,
	})
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}
