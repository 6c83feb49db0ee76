package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/campus-housing/internal/utils"
)

// DefaultLogPath is where the consumer appends one line per event.
var DefaultLogPath = filepath.Join("logs", "rental_requests.log")

// StartRentalEventConsumer connects to RabbitMQ, declares the rental
// request queue and appends every event to logPath.  It reconnects with
// exponential backoff and only returns once ctx is cancelled.  A message
// that cannot be handled is rejected without requeue so the consumer
// keeps going.
func StartRentalEventConsumer(ctx context.Context, url, logPath string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			utils.Logger.WithError(err).Warnf("rental-consumer: dial failed; retrying in %s", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logPath)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		utils.Logger.WithError(err).Warn("rental-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		utils.Logger.WithError(err).Warn("rental-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(RentalRequestQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(RentalRequestQueue, "", false, false, false, false, nil)
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
			if err := HandleMessage(d.Body, logPath); err != nil {
				utils.Logger.WithError(err).Error("rental-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line to logPath.
func HandleMessage(body []byte, logPath string) error {
	var ev RentalRequestEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.RequestID == 0 || ev.Action == "" {
		return errors.New("event without request_id or action")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if err := WriteLine(f, ev); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// WriteLine renders ev as a single human-readable line.
func WriteLine(w io.Writer, ev RentalRequestEvent) error {
	reason := ""
	if ev.Reason != nil {
		reason = " | reason=" + strconv.Quote(*ev.Reason)
	}
	_, err := fmt.Fprintf(w, "[%s] Rental request %s | request_id=%d | student_id=%d | landlord_id=%d | property_id=%d | property=%q | status=%s%s\n",
		ev.OccurredAt, ev.Action, ev.RequestID, ev.StudentID, ev.LandlordID, ev.PropertyID, ev.PropertyTitle, ev.Status, reason)
	return err
}
