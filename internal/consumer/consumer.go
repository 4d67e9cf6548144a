package consumer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/michaelwybraniec/bankly/internal/domain"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/metrics"
)

// State is the consumer lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateConnecting
	StateSubscribed
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// MessageReader is the subset of kafka.Reader the consumer needs.
// The broker client owns connection retries and consumer-group
// partition assignment.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Recorder persists a validated transfer event.
type Recorder interface {
	Record(ctx context.Context, event *domain.TransferEvent, raw []byte) (domain.WriteOutcome, error)
}

// Consumer pulls money-transferred messages from the broker, validates
// their shape, and hands them to the audit writer. Failures are
// isolated per message: a poison message never stops the stream.
type Consumer struct {
	reader   MessageReader
	recorder Recorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	state    atomic.Int32
}

// Config holds dependencies for the Consumer.
type Config struct {
	Reader   MessageReader
	Recorder Recorder
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// New creates a new Consumer in the Stopped state.
func New(cfg Config) *Consumer {
	c := &Consumer{
		reader:   cfg.Reader,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
	c.setState(StateStopped)
	return c
}

// State returns the current lifecycle state.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	c.state.Store(int32(s))
	if c.metrics != nil {
		c.metrics.ConsumerState.Set(float64(s))
	}
}

// Run processes messages until ctx is cancelled. Cancellation drains:
// the in-flight message finishes and its offset commits before the
// broker session is released. Run always leaves the consumer Stopped.
func (c *Consumer) Run(ctx context.Context) error {
	c.setState(StateConnecting)
	c.logger.Info().Msg("consumer connecting")

	// The kafka reader joins its group lazily on first fetch.
	c.setState(StateSubscribed)
	c.setState(StateRunning)
	c.logger.Info().Msg("consumer running")

	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close reader")
		}
		c.setState(StateStopped)
		c.logger.Info().Msg("consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateDraining)
				c.logger.Info().Msg("consumer draining")
				return nil
			}
			c.metrics.IncErrors()
			c.logger.Error().Err(err).Msg("failed to fetch message")
			continue
		}

		c.metrics.MessagesConsumed.Inc()

		// In-flight work is never abandoned mid-write: once fetched,
		// the message is processed and committed on a context that
		// survives shutdown.
		workCtx := context.WithoutCancel(ctx)
		c.processMessage(workCtx, msg)

		if err := c.reader.CommitMessages(workCtx, msg); err != nil {
			c.metrics.IncErrors()
			c.logger.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("failed to commit offset")
		}

		if ctx.Err() != nil {
			c.setState(StateDraining)
			c.logger.Info().Msg("consumer draining")
			return nil
		}
	}
}

// processMessage validates and records one message. Every failure path
// logs the raw payload so the message can be replayed manually.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	defer func() {
		c.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	event, err := domain.ValidateTransferEvent(msg.Value)
	if err != nil {
		// Malformed events are never retried: count, log, drop.
		c.metrics.IncErrors()
		c.logger.Error().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Bytes("payload", msg.Value).
			Msg("rejected malformed event")
		return
	}

	outcome, err := c.recorder.Record(ctx, event, msg.Value)
	if err != nil {
		// The writer already counted the failure; skip and move on.
		c.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Bytes("payload", msg.Value).
			Msg("failed to record audit event")
		return
	}

	c.metrics.StoreWrites.WithLabelValues(string(outcome)).Inc()
}
