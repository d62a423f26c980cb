package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Shootle/txtcoin/internal/model"
)

type memoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

// NewMemoryAccounts builds an in-memory account store for tests and local runs.
func NewMemoryAccounts() AccountsRepository {
	return &memoryAccounts{accounts: make(map[string]model.Account)}
}

func (r *memoryAccounts) FindByPhone(_ context.Context, phone string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[phone]
	if !ok || !a.Active() {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryAccounts) Reserve(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[phone]; exists {
		return ErrAccountExists
	}
	now := time.Now()
	r.accounts[phone] = model.Account{Phone: phone, Status: model.AccountPending, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (r *memoryAccounts) Complete(_ context.Context, a model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.accounts[a.Phone]
	if !ok || cur.Status != model.AccountPending {
		return ErrNotFound
	}
	a.Status = model.AccountActive
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = time.Now()
	r.accounts[a.Phone] = a
	return nil
}

func (r *memoryAccounts) Release(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[phone]; ok && a.Status == model.AccountPending {
		delete(r.accounts, phone)
	}
	return nil
}

func (r *memoryAccounts) UpdateQRURL(_ context.Context, phone, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[phone]
	if !ok || !a.Active() {
		return ErrNotFound
	}
	a.QRURL = url
	a.UpdatedAt = time.Now()
	r.accounts[phone] = a
	return nil
}
