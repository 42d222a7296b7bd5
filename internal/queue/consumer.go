package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/melody-camp/internal/model"
)

// Recorder persists enrollment events.  repository.AuditRepo implements it.
type Recorder interface {
	Record(ctx context.Context, e model.AuditEntry) (bool, error)
}

// StartEnrollmentConsumer connects to RabbitMQ, declares the
// enrollment.confirmed queue and writes every message into the ledger
// through rec.  It reconnects with exponential backoff and returns only
// when ctx is cancelled.
func StartEnrollmentConsumer(ctx context.Context, url string, rec Recorder) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("enrollment-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, rec)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("enrollment-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, rec Recorder) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("enrollment-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(EnrollmentQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EnrollmentQueue, "", false, false, false, false, nil)
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
			if err := HandleMessage(ctx, rec, d.Body); err != nil {
				log.Printf("enrollment-consumer: handle message failed: %v", err)
				if errors.Is(err, errMalformed) {
					_ = d.Nack(false, false)
					continue
				}
				// ledger unavailable: back off, then requeue
				sleep(ctx, time.Second)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

var errMalformed = errors.New("malformed event")

// HandleMessage decodes one delivery and records it.  Malformed payloads
// return errMalformed and are dropped; ledger failures are requeued.
func HandleMessage(ctx context.Context, rec Recorder, body []byte) error {
	var ev EnrollmentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if strings.TrimSpace(ev.EventID) == "" || ev.UserEmail == "" || ev.ClassID == "" {
		return fmt.Errorf("%w: missing event_id, user_email or class_id", errMalformed)
	}
	if ev.EnrolledAt.IsZero() {
		ev.EnrolledAt = time.Now().UTC()
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	written, err := rec.Record(wctx, model.AuditEntry{
		EventID:         ev.EventID,
		UserEmail:       ev.UserEmail,
		ClassID:         ev.ClassID,
		ClassName:       ev.ClassName,
		InstructorEmail: ev.InstructorEmail,
		EnrolledAt:      ev.EnrolledAt,
	})
	if err != nil {
		return err
	}
	if !written {
		log.Printf("enrollment-consumer: duplicate event %s ignored", ev.EventID)
	}
	return nil
}
