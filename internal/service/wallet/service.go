// Package wallet orchestrates the account store, the custodial wallet
// provider, the QR service and the local payment ledger.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shootle/txtcoin/internal/blockchain"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/repository"
	"github.com/Shootle/txtcoin/internal/secret"
	"github.com/Shootle/txtcoin/internal/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account does not exist")
	// ErrPartyNotFound is returned by PayByPhone when either side has no account.
	ErrPartyNotFound = errors.New("sender or recipient account does not exist")
	ErrSelfPayment   = errors.New("cannot pay yourself")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Provider is the remote custodial wallet service.
type Provider interface {
	CreateWallet(ctx context.Context, password string) (blockchain.Wallet, error)
	Balance(ctx context.Context, guid, password string) (int64, error)
	PayByAddress(ctx context.Context, guid, password, to string, amount int64) (blockchain.Payment, error)
}

type QRRenderer interface {
	RenderAndUpload(ctx context.Context, address string) (string, error)
}

// Sealer protects wallet credentials at rest.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// Receipt describes a completed payment.
type Receipt struct {
	PaymentID      string
	TxHash         string
	Message        string
	Address        string
	RecipientPhone string // empty for payments to a raw address
	Amount         int64
}

type Service struct {
	accounts repository.AccountsRepository
	payments repository.PaymentsRepository
	provider Provider
	qr       QRRenderer
	sealer   Sealer
}

func New(
	accounts repository.AccountsRepository,
	payments repository.PaymentsRepository,
	provider Provider,
	qr QRRenderer,
	sealer Sealer,
) *Service {
	return &Service{
		accounts: accounts,
		payments: payments,
		provider: provider,
		qr:       qr,
		sealer:   sealer,
	}
}

// CreateAccount creates a hosted wallet for phone and binds it.
//
// The phone is reserved in the store before the provider is called, so two
// concurrent requests for one phone produce exactly one wallet.
func (s *Service) CreateAccount(ctx context.Context, phone string) (model.Account, error) {
	password, err := secret.Generate(secret.CredentialLength)
	if err != nil {
		return model.Account{}, err
	}

	if err := s.accounts.Reserve(ctx, phone); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return model.Account{}, ErrAccountExists
		}
		return model.Account{}, fmt.Errorf("reserve account: %w", err)
	}

	acct, err := s.createReserved(ctx, phone, password)
	if err != nil {
		// the reservation must not outlive a failed creation
		releaseCtx := context.WithoutCancel(ctx)
		if rerr := s.accounts.Release(releaseCtx, phone); rerr != nil {
			logger.Log.Error("release account reservation", zap.String("phone", phone), zap.Error(rerr))
		}
		return model.Account{}, err
	}

	logger.Log.Info("account created", zap.String("phone", phone), zap.String("wallet_id", acct.WalletID))
	return acct, nil
}

func (s *Service) createReserved(ctx context.Context, phone, password string) (model.Account, error) {
	w, err := s.provider.CreateWallet(ctx, password)
	if err != nil {
		return model.Account{}, fmt.Errorf("create wallet: %w", err)
	}

	// a missing QR code is regenerated later, it does not fail the account
	qrURL, err := s.qr.RenderAndUpload(ctx, w.Address)
	if err != nil {
		logger.Log.Warn("qr render failed", zap.String("phone", phone), zap.Error(err))
		qrURL = ""
	}

	sealed, err := s.sealer.Seal(password)
	if err != nil {
		return model.Account{}, fmt.Errorf("seal credential: %w", err)
	}

	acct := model.Account{
		Phone:      phone,
		WalletID:   w.GUID,
		Credential: sealed,
		Address:    w.Address,
		QRURL:      qrURL,
		Status:     model.AccountActive,
	}
	if err := s.accounts.Complete(ctx, acct); err != nil {
		// TODO: the provider wallet is orphaned here; record the guid for manual recovery
		return model.Account{}, fmt.Errorf("complete account: %w", err)
	}
	return acct, nil
}

// Account returns the active account for phone.
func (s *Service) Account(ctx context.Context, phone string) (model.Account, error) {
	a, err := s.accounts.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}
	return *a, nil
}

// Balance returns the wallet balance of phone in satoshi.
func (s *Service) Balance(ctx context.Context, phone string) (int64, error) {
	a, err := s.Account(ctx, phone)
	if err != nil {
		return 0, err
	}
	password, err := s.sealer.Open(a.Credential)
	if err != nil {
		return 0, fmt.Errorf("open credential: %w", err)
	}
	return s.provider.Balance(ctx, a.WalletID, password)
}

// PayByAddress pays amount satoshi from phone's wallet to address.
func (s *Service) PayByAddress(ctx context.Context, phone, address string, amount int64) (Receipt, error) {
	if amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	from, err := s.Account(ctx, phone)
	if err != nil {
		return Receipt{}, err
	}
	return s.pay(ctx, from, address, "", amount)
}

// PayByPhone pays amount satoshi from phone to the wallet bound to target.
// Both accounts are looked up concurrently; no payment is attempted unless
// both exist.
func (s *Service) PayByPhone(ctx context.Context, phone, target string, amount int64) (Receipt, error) {
	if amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	if phone == target {
		return Receipt{}, ErrSelfPayment
	}

	var from, to model.Account
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		from, err = s.Account(gctx, phone)
		return err
	})
	g.Go(func() (err error) {
		to, err = s.Account(gctx, target)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Receipt{}, ErrPartyNotFound
		}
		return Receipt{}, err
	}

	return s.pay(ctx, from, to.Address, to.Phone, amount)
}

func (s *Service) pay(ctx context.Context, from model.Account, address, recipientPhone string, amount int64) (Receipt, error) {
	password, err := s.sealer.Open(from.Credential)
	if err != nil {
		return Receipt{}, fmt.Errorf("open credential: %w", err)
	}

	res, err := s.provider.PayByAddress(ctx, from.WalletID, password, address, amount)
	if err != nil {
		return Receipt{}, err
	}

	p := model.Payment{
		ID:               util.New(),
		SenderPhone:      from.Phone,
		RecipientPhone:   sql.NullString{String: recipientPhone, Valid: recipientPhone != ""},
		RecipientAddress: address,
		Amount:           amount,
		TxHash:           res.TxHash,
	}
	// the money has moved; a ledger failure only costs us history
	if err := s.payments.Insert(context.WithoutCancel(ctx), p); err != nil {
		logger.Log.Error("record payment", zap.String("payment_id", p.ID), zap.Error(err))
	}

	logger.Log.Info("payment sent",
		zap.String("payment_id", p.ID),
		zap.String("from", from.Phone),
		zap.String("to", address),
		zap.Int64("amount", amount))

	return Receipt{
		PaymentID:      p.ID,
		TxHash:         res.TxHash,
		Message:        res.Message,
		Address:        address,
		RecipientPhone: recipientPhone,
		Amount:         amount,
	}, nil
}

// RegenerateQR renders a fresh QR code for phone's address and stores its URL.
func (s *Service) RegenerateQR(ctx context.Context, phone string) (string, error) {
	a, err := s.Account(ctx, phone)
	if err != nil {
		return "", err
	}
	u, err := s.qr.RenderAndUpload(ctx, a.Address)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	if err := s.accounts.UpdateQRURL(ctx, phone, u); err != nil {
		return "", fmt.Errorf("update qr url: %w", err)
	}
	return u, nil
}

// Transactions returns up to limit payments sent or received by phone, newest first.
func (s *Service) Transactions(ctx context.Context, phone string, limit int) ([]model.Payment, error) {
	if _, err := s.Account(ctx, phone); err != nil {
		return nil, err
	}
	ps, err := s.payments.ListByPhone(ctx, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return ps, nil
}
