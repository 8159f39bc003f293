package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/travel-diary/internal/infrastructure/resilience"
)

const workerQueueGroup = "thumbnail-workers"

// PrintableSaved is published after a printable diary has been stored.
type PrintableSaved struct {
	PrintableID string    `json:"printableId"`
	SavedAt     time.Time `json:"savedAt"`
}

func encodeEvent(ev PrintableSaved) ([]byte, error) {
	return json.Marshal(ev)
}

// decodeEvent also accepts a bare printable id as the payload.
func decodeEvent(data []byte) (PrintableSaved, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return PrintableSaved{}, fmt.Errorf("empty event payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return PrintableSaved{PrintableID: trimmed}, nil
	}
	var ev PrintableSaved
	if err := json.Unmarshal(data, &ev); err != nil {
		return PrintableSaved{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.PrintableID == "" {
		return PrintableSaved{}, fmt.Errorf("event without printable id")
	}
	return ev, nil
}

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("travel-diary"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	executor := options.ResilienceExecutor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.EventPolicy())
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: executor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishPrintableSaved(ctx context.Context, printableID string) error {
	payload, err := encodeEvent(PrintableSaved{PrintableID: printableID, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	err = q.executor.Run(ctx, "nats.publish", func(context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", err))
		}
		return nil
	}, classifyNATSError)
	return wrapTemporaryIfNeeded(err)
}

// SubscribePrintableSaved delivers events to handler until ctx is done.
// Workers share one queue group so each event is handled once.
func (q *Queue) SubscribePrintableSaved(ctx context.Context, handler func(context.Context, PrintableSaved) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		ev, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Warn("printable_event_invalid", "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, ev); err != nil {
			slog.Error("printable_event_handler_failed", "printable_id", ev.PrintableID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// Discard is the publisher used when events are disabled.
type Discard struct{}

func (Discard) PublishPrintableSaved(context.Context, string) error { return nil }
