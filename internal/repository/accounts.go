package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/jmoiron/sqlx"
)

// AccountsRepository persists phone -> wallet bindings.
//
// Creation is split into Reserve / Complete / Release so that the unique key on
// phone decides which of two concurrent create_account commands wins before any
// wallet is created at the provider.
type AccountsRepository interface {
	// FindByPhone returns the active account for phone or ErrNotFound.
	FindByPhone(ctx context.Context, phone string) (*model.Account, error)
	// Reserve inserts a pending row for phone, or returns ErrAccountExists.
	Reserve(ctx context.Context, phone string) error
	// Complete fills in a reserved row and marks it active.
	Complete(ctx context.Context, a model.Account) error
	// Release removes a pending reservation.
	Release(ctx context.Context, phone string) error
	UpdateQRURL(ctx context.Context, phone, url string) error
}

type AccountsRepositoryImpl struct {
	db *sqlx.DB

	// pending rows older than this are treated as abandoned by Reserve
	pendingTTL time.Duration
}

func NewAccountsRepository(db *sqlx.DB, pendingTTL time.Duration) *AccountsRepositoryImpl {
	if pendingTTL <= 0 {
		pendingTTL = 5 * time.Minute
	}
	return &AccountsRepositoryImpl{db: db, pendingTTL: pendingTTL}
}

var _ AccountsRepository = (*AccountsRepositoryImpl)(nil)

func (r *AccountsRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*model.Account, error) {
	var a model.Account
	err := r.db.GetContext(ctx, &a, `
		SELECT phone, wallet_id, credential, address, qr_url, status, created_at, updated_at
		  FROM accounts
		 WHERE phone = ? AND status = 'active' LIMIT 1
	`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountsRepositoryImpl) Reserve(ctx context.Context, phone string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// reclaim a reservation left behind by a crashed creation; the cutoff is
	// taken from the database clock that stamped created_at
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM accounts
		 WHERE phone = ? AND status = 'pending' AND created_at < NOW() - INTERVAL ? SECOND
	`, phone, int64(r.pendingTTL/time.Second)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (phone, status, created_at, updated_at)
		VALUES (?, 'pending', NOW(), NOW())
	`, phone)
	if isDuplicateKey(err) {
		return ErrAccountExists
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AccountsRepositoryImpl) Complete(ctx context.Context, a model.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		   SET wallet_id = ?, credential = ?, address = ?, qr_url = ?, status = 'active', updated_at = NOW()
		 WHERE phone = ? AND status = 'pending'
	`, a.WalletID, a.Credential, a.Address, a.QRURL, a.Phone)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *AccountsRepositoryImpl) Release(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE phone = ? AND status = 'pending'`, phone)
	return err
}

// UpdateQRURL does not report a missing row: MySQL counts an update that
// rewrites the same URL as zero affected rows.
func (r *AccountsRepositoryImpl) UpdateQRURL(ctx context.Context, phone, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET qr_url = ?, updated_at = NOW(3)
		 WHERE phone = ? AND status = 'active'
	`, url, phone)
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
