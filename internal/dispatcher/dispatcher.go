package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/metrics"
	"github.com/Shootle/txtcoin/internal/model"
	"go.uber.org/zap"
)

var (
	ErrNoHealthy = errors.New("no healthy providers")
	ErrNoAcquire = errors.New("provider not acquired")
)

// Dispatcher delivers replies through the configured SMS providers,
// round-robin over the healthy ones with a bounded number of attempts.
type Dispatcher struct {
	providers         []Provider
	from              string
	roundRobinCounter atomic.Uint64
	maxAttempts       int
}

func NewDispatcher(provs []Provider, maxAttempts int, from string) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	return &Dispatcher{providers: provs, maxAttempts: maxAttempts, from: from}
}

func (d *Dispatcher) selectProvider() (Provider, error) {
	healthy := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		if p.Ready() {
			healthy = append(healthy, p)
		}
	}

	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}

	x := d.roundRobinCounter.Add(1)
	idx := int((x - 1) % uint64(len(healthy)))

	return healthy[idx], nil
}

func (d *Dispatcher) tryOnce(ctx context.Context, sms model.SMS) error {
	p, err := d.selectProvider()
	if err != nil {
		return err
	}

	if !p.Acquire() {
		return ErrNoAcquire
	}

	if err := p.Send(ctx, d.from, sms); err != nil {
		logger.Log.Warn("sms provider send failed", zap.String("provider", p.Name()), zap.Error(err))
		return err
	}
	return nil
}

// Send delivers body to the recipient phone.
func (d *Dispatcher) Send(ctx context.Context, to, body string) error {
	sms := model.SMS{To: to, Body: body}

	var last error
	for i := 0; i < d.maxAttempts; i++ {
		if ctx.Err() != nil {
			last = ctx.Err()
			break
		}
		if err := d.tryOnce(ctx, sms); err == nil {
			metrics.RepliesTotal.WithLabelValues("sent").Inc()
			return nil
		} else {
			last = err
		}
	}

	metrics.RepliesTotal.WithLabelValues("failed").Inc()
	return last
}
