// Package queue_publisher publishes domain events to RabbitMQ.  Errors
// are logged and returned so callers can ignore failures without
// interrupting the main request flow: a confirmed booking must not be
// rolled back because the broker is down.
package queue_publisher

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog/log"

    q "github.com/iliyamo/concert-reservation/internal/queue"
)

// PublishBookingConfirmed publishes a BookingConfirmedEvent to the
// durable "booking.confirmed" queue.  Messages are marked persistent so
// they survive broker restarts.
func PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error {
    conn, err := amqp.Dial(q.BrokerURL())
    if err != nil {
        log.Warn().Err(err).Msg("rabbitmq dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn().Err(err).Msg("rabbitmq channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent declare; keeps publisher and consumer agreeing on the
    // queue's durability.
    if _, err := ch.QueueDeclare("booking.confirmed", true, false, false, false, nil); err != nil {
        log.Warn().Err(err).Msg("rabbitmq queue declare failed")
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Warn().Err(err).Msg("marshal booking event failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", "booking.confirmed", false, false, pub); err != nil {
        log.Warn().Err(err).Msg("rabbitmq publish failed")
        return err
    }
    return nil
}
