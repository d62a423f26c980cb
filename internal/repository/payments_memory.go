package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Shootle/txtcoin/internal/model"
)

type memoryPayments struct {
	mu       sync.Mutex
	payments []model.Payment
}

// NewMemoryPayments builds an in-memory payment ledger.
func NewMemoryPayments() PaymentsRepository {
	return &memoryPayments{}
}

func (r *memoryPayments) Insert(_ context.Context, p model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.ID == p.ID {
			return nil
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.payments = append(r.payments, p)
	return nil
}

func (r *memoryPayments) ListByPhone(_ context.Context, phone string, limit int) ([]model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 3
	}

	var out []model.Payment
	// newest first: payments are appended in insertion order
	for i := len(r.payments) - 1; i >= 0 && len(out) < limit; i-- {
		p := r.payments[i]
		if p.SenderPhone == phone || (p.RecipientPhone.Valid && p.RecipientPhone.String == phone) {
			out = append(out, p)
		}
	}
	return out, nil
}
