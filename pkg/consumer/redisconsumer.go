package consumer

import (
	"errors"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

type RedisConsumer struct {
	QueueName string

	NumberConsumers int
	BatchSize       int

	Timeout time.Duration

	Consumer rmq.BatchConsumer
}

// Start opens the queue and attaches NumberConsumers batch consumers to it.
// Deliveries are fetched in the background until the connection stops consuming.
func (c *RedisConsumer) Start(connection rmq.Connection) (rmq.Queue, error) {
	if c.NumberConsumers < 1 || c.BatchSize < 1 {
		return nil, errors.New("consumer needs at least one consumer and a batch size of one")
	}
	if c.Consumer == nil {
		return nil, errors.New("no batch consumer set")
	}

	log.Info().Str("queue", c.QueueName).Int("consumers", c.NumberConsumers).Msg("Starting consumers")

	queue, err := connection.OpenQueue(c.QueueName)
	if err != nil {
		return nil, fmt.Errorf("opening queue %s: %w", c.QueueName, err)
	}
	if err := queue.StartConsuming(int64(c.NumberConsumers*c.BatchSize), 1*time.Second); err != nil {
		return nil, fmt.Errorf("consuming queue %s: %w", c.QueueName, err)
	}

	for i := 0; i < c.NumberConsumers; i++ {
		if err := c.startQueueConsumer(queue, i); err != nil {
			return nil, err
		}
	}

	return queue, nil
}

func (c *RedisConsumer) startQueueConsumer(queue rmq.Queue, id int) error {
	log.Debug().Msgf("Starting %s consumer %d", c.QueueName, id)

	if _, err := queue.AddBatchConsumer(fmt.Sprintf("%s-%d", c.QueueName, id), int64(c.BatchSize), c.Timeout, c.Consumer); err != nil {
		return fmt.Errorf("adding consumer %d to %s: %w", id, c.QueueName, err)
	}
	return nil
}
