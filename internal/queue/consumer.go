package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/zenpod/internal/logger"
)

const sessionLogFile = "session.log"

// StartSessionConsumer consumes session.events and appends one line per
// event to <logDir>/session.log.  It reconnects with exponential backoff
// and returns only when ctx is cancelled.  Messages that cannot be
// handled are rejected without requeue.
func StartSessionConsumer(ctx context.Context, url, logDir string, log logger.Logger) error {
    log = log.With(map[string]interface{}{"component": "session-consumer"})
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).Warn("failed to dial broker", map[string]interface{}{"retry_in": backoff.String()})
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logDir, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("consume loop ended; reconnecting", nil)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, log logger.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("set QoS failed", nil)
    }
    if _, err := ch.QueueDeclare(SessionEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(SessionEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(logDir, d.Body); err != nil {
                log.WithError(err).Error("handle message failed", nil)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(logDir string, body []byte) error {
    var ev SessionEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.SessionID == 0 {
        return errors.New("event without type or session id")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, sessionLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatEvent(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatEvent(ev SessionEvent) string {
    user := "anonymous"
    if ev.UserID != nil {
        user = fmt.Sprintf("%d", *ev.UserID)
    }
    line := fmt.Sprintf("[%s] %s | session_id=%d | user_id=%s | out_trade_no=%s | duration_hours=%g",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.SessionID, user, ev.OrderRef, ev.DurationHours)
    if ev.Forced {
        line += " | forced=true"
    }
    if ev.StartTime != nil {
        line += " | start=" + ev.StartTime.UTC().Format(time.RFC3339)
    }
    if ev.EndTime != nil {
        line += " | end=" + ev.EndTime.UTC().Format(time.RFC3339)
    }
    return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
