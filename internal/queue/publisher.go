package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/zenpod/internal/logger"
)

// Publisher sends session events to RabbitMQ.  Each publish opens its own
// connection and channel, so a broker outage only affects the events that
// are published while it lasts.
type Publisher struct {
    url string
    log logger.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logger.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// PublishSessionEvent publishes ev to the session.events queue as a
// persistent message.  Errors are logged and returned; callers are free
// to ignore them.
func (p *Publisher) PublishSessionEvent(ctx context.Context, ev SessionEvent) error {
    log := p.log.With(map[string]interface{}{"event": ev.Type, "session_id": ev.SessionID})

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.WithError(err).Warn("rabbitmq: dial failed", nil)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.WithError(err).Warn("rabbitmq: channel open failed", nil)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(SessionEventsQueue, true, false, false, false, nil); err != nil {
        log.WithError(err).Warn("rabbitmq: queue declare failed", nil)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", SessionEventsQueue, false, false, pub); err != nil {
        log.WithError(err).Warn("rabbitmq: publish failed", nil)
        return err
    }
    return nil
}
