package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/gammazero/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

const (
	numWorkers     = 4
	consumeTimeout = 30 * time.Second
	maxAttempts    = 3
)

type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type searchConsumer struct {
	reader  *kafka.Reader
	metrics *prometheus.HistogramVec
	handler EventHandler
	done    chan struct{}
	pool    *workerpool.WorkerPool
}

// NewConsumer builds the search-event consumer. When kafka is disabled in
// the config a no-op consumer is returned, so the rest of the app wires
// the same either way.
func NewConsumer(cfg config.KafkaConfig, handler EventHandler) (Consumer, error) {
	if !cfg.Enabled {
		return &noopConsumer{}, nil
	}

	metrics, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.LastOffset,
	})

	return &searchConsumer{
		reader:  reader,
		metrics: metrics,
		handler: handler,
		done:    make(chan struct{}),
		pool:    workerpool.New(numWorkers),
	}, nil
}

func (c *searchConsumer) Start(ctx context.Context) error {
	// the reader is closed by Stop, which owns the shutdown sequence
	log.Infof(ctx, "Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for ctx.Err() == nil {
		select {
		case <-c.done:
			return nil
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Errorw(ctx, "Error reading message", "error", err)
			continue
		}

		c.pool.Submit(func() {
			c.processMessage(ctx, msg)
		})
	}
	return nil
}

func (c *searchConsumer) Stop(ctx context.Context) error {
	log.Infof(ctx, "Stopping Kafka consumer")
	close(c.done)
	c.pool.StopWait()
	return c.reader.Close()
}

func (c *searchConsumer) processMessage(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	lagMs := start.Sub(msg.Time).Milliseconds()

	err := c.handleWithRetry(ctx, msg)
	duration := time.Since(start)

	code := getCode(err)
	content := "success"
	if err != nil {
		content = err.Error()
	}

	level := getLogLevel(code)
	log.Logw(ctx, level, content,
		"code", code,
		"duration_ms", duration.Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"lag_ms", lagMs,
		"key", string(msg.Key),
		"value", json.RawMessage(msg.Value),
	)

	c.metrics.
		WithLabelValues(code.String(), msg.Topic, c.reader.Config().GroupID).
		Observe(duration.Seconds())
}

// handleWithRetry re-runs the handler when it reports a retryable error,
// waiting out the requested delay between attempts.
func (c *searchConsumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.handle(ctx, msg)

		var retryErr *ErrRetry
		if !errors.As(err, &retryErr) {
			return err
		}
		if attempt == maxAttempts {
			return err
		}

		log.Warnw(ctx, "retrying message",
			"attempt", attempt,
			"delay", retryErr.Delay,
			"error", err,
		)
		select {
		case <-time.After(retryErr.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *searchConsumer) handle(msgCtx context.Context, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PANIC RECOVER: %+v", r)
		}
	}()

	var event SearchEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("unmarshal search event: %w", err)
	}

	if event.Pattern != PatternSearchRequested {
		log.Infow(msgCtx, "Ignoring event", "pattern", event.Pattern)
		return nil
	}

	ctx, cancel := context.WithTimeout(msgCtx, consumeTimeout)
	defer cancel()

	return c.handler.HandleEvent(ctx, &event)
}

func getCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	st, ok := status.FromError(err)
	if !ok {
		return status.Code(errors.Unwrap(err))
	}
	return st.Code()
}

// noopConsumer is used when Kafka is disabled
type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	log.Infof(ctx, "Kafka consumer is disabled")
	return nil
}

func (n *noopConsumer) Stop(ctx context.Context) error {
	return nil
}

func getLogLevel(code codes.Code) logger.Level {
	switch code {
	case codes.OK:
		return logger.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return logger.WarnLevel
	default:
		return logger.ErrorLevel
	}
}
