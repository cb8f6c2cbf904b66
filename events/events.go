package events

import (
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const orderQueue = "order_events"

// Publisher emits order lifecycle events to RabbitMQ. A nil *Publisher is
// valid and publishes nothing, so the broker stays optional.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

type orderEvent struct {
	OrderID   uint      `json:"order_id"`
	Event     string    `json:"event"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		orderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// PublishOrderEvent sends an event after the surrounding transaction has
// committed. Failures are logged, never surfaced to the caller.
func (p *Publisher) PublishOrderEvent(orderID uint, event, status string) {
	if p == nil {
		return
	}

	body, err := json.Marshal(orderEvent{
		OrderID:   orderID,
		Event:     event,
		Status:    status,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("Failed to encode order event: %v", err)
		return
	}

	err = p.channel.Publish(
		"",         // default exchange
		orderQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		log.Printf("Failed to publish order event: %v", err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
