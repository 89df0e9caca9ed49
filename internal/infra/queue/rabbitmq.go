package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
)

const popPollInterval = time.Second

// RabbitGenerationQueue реализует очередь задач генерации поверх AMQP.
type RabbitGenerationQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewRabbitGenerationQueue подключается к брокеру и объявляет устойчивую очередь.
func NewRabbitGenerationQueue(amqpURL, queue string) (*RabbitGenerationQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitGenerationQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitGenerationQueue) Enqueue(ctx context.Context, job domain.GenerationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RabbitGenerationQueue) Pop(ctx context.Context) (domain.GenerationJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.GenerationJob{}, err
		}
		start := time.Now()
		delivery, ok, err := q.ch.Get(q.queue, true)
		metrics.ObserveNetworkRequest("rabbitmq", "get", q.queue, start, err)
		if err != nil {
			return domain.GenerationJob{}, fmt.Errorf("get message: %w", err)
		}
		if !ok {
			select {
			case <-ctx.Done():
				return domain.GenerationJob{}, ctx.Err()
			case <-time.After(popPollInterval):
			}
			continue
		}
		var job domain.GenerationJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			return domain.GenerationJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}

// Close освобождает канал и соединение.
func (q *RabbitGenerationQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
