package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// drainTimeout bounds the final pass over the queues once the consumer is stopped.
const drainTimeout = 500 * time.Millisecond

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// Journaler persists change events.
type Journaler interface {
	AppendEvent(ctx context.Context, event ChangeEvent) error
}

type journalConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	journal Journaler
}

func NewJournalConsumer(logger *zap.Logger, q Queuer, journal Journaler) Consumer {
	return &journalConsumer{logger, q, journal}
}

// Consume moves events from the queues into the journal until the context is done.
func (jc *journalConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, event, err := jc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			jc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			jc.drain(qids...)
			return nil
		}

		if errors.Is(err, ErrQueueEmpty) {
			continue
		}

		if err != nil {
			jc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		jc.handle(ctx, qid, event)
	}
}

func (jc *journalConsumer) handle(ctx context.Context, qid string, event ChangeEvent) {
	if qid != JournalQueue {
		jc.logger.Warn("consumer: received event on unknow queue id", zap.String("qid", qid), zap.Any("event", event))
		return
	}
	switch event.Kind {
	case CreateEvent, UpdateEvent, DeleteEvent, SaveEvent:
		if err := jc.journal.AppendEvent(ctx, event); err != nil {
			jc.logger.Error("consumer: failed to journal event", zap.String("qid", qid), zap.Any("event", event), zap.Error(err))
		}
	default:
		jc.logger.Warn("consumer: received event of unknown kind", zap.String("kind", event.Kind), zap.Any("event", event))
	}
}

// drain journals the events still queued when the consumer was stopped,
// such as the final save event of the session.
func (jc *journalConsumer) drain(qids ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		qid, event, err := jc.queue.Pop(ctx, qids...)
		if err != nil {
			return
		}
		jc.handle(ctx, qid, event)
	}
}
