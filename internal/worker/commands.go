package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Shootle/txtcoin/internal/kafka"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/model"
	"go.uber.org/zap"
)

// Source is the Kafka consumer surface the worker depends on.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Dispatcher runs one command message, reply included.
type Dispatcher interface {
	Dispatch(ctx context.Context, sender, message string)
}

// Seen marks envelope ids as processed. First reports true the first time
// an id is offered.
type Seen interface {
	First(ctx context.Context, id string) (bool, error)
}

// Commands:
// - fetches inbound envelopes from Kafka,
// - shards them by partition; the producer keys by sender, so each sender's
//   commands run in order and each partition commits in offset order,
// - dispatches them through the command router and commits.
type Commands struct {
	Source   Source
	Dispatch Dispatcher
	Seen     Seen // optional; guards against redelivery after a crash

	Workers int // number of shards; partitions beyond it share a shard
}

func NewCommands(src Source, dispatch Dispatcher, seen Seen) *Commands {
	return &Commands{
		Source:   src,
		Dispatch: dispatch,
		Seen:     seen,
		Workers:  16,
	}
}

// Run blocks until ctx is cancelled and every in-flight command finished.
func (w *Commands) Run(ctx context.Context) error {
	if w.Source == nil || w.Dispatch == nil {
		return errors.New("commands worker: missing source or dispatcher")
	}
	if w.Workers <= 0 {
		w.Workers = 16
	}

	shards := make([]chan kafka.Message, w.Workers)
	for i := range shards {
		shards[i] = make(chan kafka.Message, 8)
	}

	var wg sync.WaitGroup
	for i := range shards {
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				w.processOne(ctx, m)
			}
		}(shards[i])
	}

	// fetch loop → shard by partition
	for {
		m, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Log.Warn("commands worker: kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		shards[m.Partition%len(shards)] <- m
	}

	for _, ch := range shards {
		close(ch)
	}
	wg.Wait()
	return nil
}

func (w *Commands) processOne(ctx context.Context, m kafka.Message) {
	// buffered messages still run after shutdown starts; the router bounds each one
	ctx = context.WithoutCancel(ctx)
	defer w.commit(ctx, m)

	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.ID == "" || env.Inbound.From == "" {
		// poison → commit, skip
		logger.Log.Warn("commands worker: bad envelope",
			zap.Int64("offset", m.Offset),
			zap.Int("partition", m.Partition),
			zap.Error(err),
		)
		return
	}

	if w.Seen != nil {
		first, err := w.Seen.First(ctx, env.ID)
		if err != nil {
			// prefer a possible duplicate over a dropped command
			logger.Log.Warn("commands worker: seen lookup failed", zap.String("id", env.ID), zap.Error(err))
		} else if !first {
			logger.Log.Info("commands worker: skip redelivered envelope", zap.String("id", env.ID))
			return
		}
	}

	w.Dispatch.Dispatch(ctx, env.Inbound.From, env.Inbound.Body)
}

func (w *Commands) commit(ctx context.Context, m kafka.Message) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Source.Commit(ctx, m); err != nil {
		logger.Log.Error("commands worker: commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}
