package repository

import (
	"context"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/jmoiron/sqlx"
)

// PaymentsRepository is the local ledger of payments sent through the provider.
type PaymentsRepository interface {
	Insert(ctx context.Context, p model.Payment) error
	// ListByPhone returns payments sent or received by phone, newest first.
	ListByPhone(ctx context.Context, phone string, limit int) ([]model.Payment, error)
}

type PaymentsRepositoryImpl struct {
	db *sqlx.DB
}

func NewPaymentsRepository(db *sqlx.DB) *PaymentsRepositoryImpl {
	return &PaymentsRepositoryImpl{db: db}
}

var _ PaymentsRepository = (*PaymentsRepositoryImpl)(nil)

// Insert is idempotent on id.
func (r *PaymentsRepositoryImpl) Insert(ctx context.Context, p model.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments
		    (id, sender_phone, recipient_phone, recipient_address, amount, tx_hash, created_at)
		VALUES
		    (?,  ?,            ?,               ?,                 ?,      ?,       NOW())
		ON DUPLICATE KEY UPDATE id = id
	`, p.ID, p.SenderPhone, p.RecipientPhone, p.RecipientAddress, p.Amount, p.TxHash)
	return err
}

func (r *PaymentsRepositoryImpl) ListByPhone(ctx context.Context, phone string, limit int) ([]model.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 3
	}

	var rows []model.Payment
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, sender_phone, recipient_phone, recipient_address, amount, tx_hash, created_at
		  FROM payments
		 WHERE sender_phone = ? OR recipient_phone = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?
	`, phone, phone, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
