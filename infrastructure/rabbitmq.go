package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"interview-prep/domain"
)

// RabbitMQ publishes run jobs to a durable queue and consumes them in this process.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     logrus.FieldLogger

	tag        string
	stopping   atomic.Bool
	workers    sync.WaitGroup
	cancelRuns context.CancelFunc
}

func NewRabbitMQ(url, queueName string, log logrus.FieldLogger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	log.WithField("queue", q.Name).Info("connected to RabbitMQ and declared queue")
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

// Dispatch publishes job as a persistent JSON message.
func (r *RabbitMQ) Dispatch(ctx context.Context, job domain.RunJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID,
			Timestamp:    job.SubmittedAt,
			Body:         body,
		},
	)
}

// ConsumeJobs delivers queued jobs to handler, one at a time per prefetch slot.
// Messages are acked once the handler returns. Handlers get a context derived from
// ctx that Shutdown cancels when its drain deadline passes.
func (r *RabbitMQ) ConsumeJobs(ctx context.Context, prefetch int, handler func(context.Context, domain.RunJob)) error {
	if err := r.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	r.tag = "interview-prep-" + uuid.NewString()
	msgs, err := r.channel.Consume(
		r.queue.Name,
		r.tag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancelRuns = cancel

	r.workers.Add(prefetch)
	for i := 0; i < prefetch; i++ {
		go func() {
			defer r.workers.Done()
			for d := range msgs {
				if r.stopping.Load() {
					_ = d.Nack(false, true)
					continue
				}
				var job domain.RunJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					r.log.WithError(err).Warn("invalid job format, dropping message")
					_ = d.Nack(false, false)
					continue
				}
				handler(runCtx, job)
				_ = d.Ack(false)
			}
		}()
	}
	return nil
}

// Shutdown stops the consumer and waits for handlers to return. Deliveries that
// arrive after the stop are requeued. When ctx ends first the handlers' context is
// cancelled and ctx.Err() is returned once they have returned.
func (r *RabbitMQ) Shutdown(ctx context.Context) error {
	if r.cancelRuns == nil {
		return nil
	}
	r.stopping.Store(true)
	if err := r.channel.Cancel(r.tag, false); err != nil {
		r.log.WithError(err).Warn("cancelling consumer")
	}

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancelRuns()
		return nil
	case <-ctx.Done():
		r.log.Warn("drain deadline passed, cancelling running interview preps")
		r.cancelRuns()
		<-done
		return ctx.Err()
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.log.WithError(err).Warn("closing channel")
	}
	return r.conn.Close()
}
