package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/campus-housing/internal/queue"
	"github.com/iliyamo/campus-housing/internal/utils"
)

// EventPublisher sends rental request events to the broker.
type EventPublisher interface {
	PublishRentalRequest(ctx context.Context, ev queue.RentalRequestEvent) error
}

// DefaultDialTimeout bounds connecting to the broker while a request
// waits on the publish.
const DefaultDialTimeout = 2 * time.Second

// RabbitPublisher publishes to RabbitMQ, opening a connection per
// message.  Errors are logged and returned so callers can ignore them
// without interrupting the request.
type RabbitPublisher struct {
	URL         string
	DialTimeout time.Duration
}

// NewRabbitPublisher returns a publisher for the broker at url.
func NewRabbitPublisher(url string) *RabbitPublisher {
	return &RabbitPublisher{URL: url, DialTimeout: DefaultDialTimeout}
}

// dialTimeout is DialTimeout, cut short by the deadline of ctx.
func (p *RabbitPublisher) dialTimeout(ctx context.Context) time.Duration {
	d := p.DialTimeout
	if d <= 0 {
		d = DefaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// PublishRentalRequest sends ev to the durable rental request queue as
// a persistent message.
func (p *RabbitPublisher) PublishRentalRequest(ctx context.Context, ev queue.RentalRequestEvent) error {
	log := utils.Logger.WithField("request_id", ev.RequestID)

	timeout := p.dialTimeout(ctx)
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.RentalRequestQueue, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.RentalRequestQueue, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}
