// Package ingest bridges the scraper-facing RabbitMQ queue and the
// in-process queue controller. Scrapers publish raw posting JSON; the
// consumer validates each message, builds a task with a content-derived
// ID, and submits it. Duplicates are acked and dropped, which is the
// dedup index doing its job, not an error.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/davidtran-dev/jobmatch-be/internal/queue"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
	"github.com/davidtran-dev/jobmatch-be/shared/rabbitmq"
)

// Posting is the wire format scrapers publish.
type Posting struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Company       string `json:"company"`
	Location      string `json:"location"`
	SearchKeyword string `json:"search_keyword"`
	Description   string `json:"description"`
}

// Consumer drains scraped postings from RabbitMQ into the controller.
type Consumer struct {
	logger        *slog.Logger
	client        *rabbitmq.Client
	controller    *queue.Controller
	prefetchCount int
	consumerTag   string
}

// NewConsumer creates a consumer with a unique consumer tag.
func NewConsumer(logger *slog.Logger, client *rabbitmq.Client, controller *queue.Controller, prefetchCount int) *Consumer {
	return &Consumer{
		logger:        logger,
		client:        client,
		controller:    controller,
		prefetchCount: prefetchCount,
		consumerTag:   "jobmatch-ingest-" + uuid.New().String()[:8],
	}
}

// Start configures QoS, begins consuming, and runs the dispatch loop
// until ctx is canceled or the delivery channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.client.Qos(c.prefetchCount); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.client.Consume(c.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Posting consumer started",
		slog.String("consumer_tag", c.consumerTag),
		slog.Int("prefetch_count", c.prefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Posting consumer stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("RabbitMQ delivery channel closed")
				return nil
			}

			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var posting Posting
	if err := json.Unmarshal(delivery.Body, &posting); err != nil {
		c.logger.Error("Failed to parse posting JSON",
			slog.String("error", err.Error()),
			slog.Int("body_size", len(delivery.Body)),
		)
		// Malformed messages go to the broker's dead letter queue.
		c.nack(delivery, false)
		return
	}

	task := domain.NewJobTask(
		posting.URL,
		posting.Title,
		posting.Company,
		posting.Location,
		posting.SearchKeyword,
		posting.Description,
	)

	if err := task.Validate(); err != nil {
		c.logger.Error("Rejecting invalid posting",
			slog.String("url", posting.URL),
			slog.String("error", err.Error()),
		)
		c.nack(delivery, false)
		return
	}

	admitted, err := c.controller.Submit(ctx, task)
	if err != nil {
		c.logger.Warn("Failed to submit posting, requeueing",
			slog.String("job_id", task.JobID),
			slog.String("error", err.Error()),
		)
		c.nack(delivery, true)
		return
	}

	if !admitted {
		c.logger.Debug("Duplicate posting dropped",
			slog.String("job_id", task.JobID),
			slog.String("title", task.Title),
		)
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error("Failed to ACK posting",
			slog.String("job_id", task.JobID),
			slog.String("error", ackErr.Error()),
		)
	}
}

func (c *Consumer) nack(delivery amqp.Delivery, requeue bool) {
	if err := delivery.Nack(false, requeue); err != nil {
		c.logger.Error("Failed to NACK message",
			slog.String("error", err.Error()),
			slog.Bool("requeue", requeue),
		)
	}
}
