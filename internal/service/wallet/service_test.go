package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Shootle/txtcoin/internal/blockchain"
	"github.com/Shootle/txtcoin/internal/blockchain/blockchaintest"
	"github.com/Shootle/txtcoin/internal/qr/qrtest"
	"github.com/Shootle/txtcoin/internal/repository"
	"github.com/Shootle/txtcoin/internal/secret"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fixture struct {
	svc      *Service
	accounts repository.AccountsRepository
	payments repository.PaymentsRepository
	provider *blockchaintest.Provider
	qr       *qrtest.Renderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	box, err := secret.NewBox(testKey)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	f := &fixture{
		accounts: repository.NewMemoryAccounts(),
		payments: repository.NewMemoryPayments(),
		provider: blockchaintest.New(),
		qr:       &qrtest.Renderer{},
	}
	f.svc = New(f.accounts, f.payments, f.provider, f.qr, box)
	return f
}

func TestCreateAccountTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acct, err := f.svc.CreateAccount(ctx, "+15550000001")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.WalletID == "" || acct.Address == "" || acct.QRURL == "" {
		t.Fatalf("incomplete account %+v", acct)
	}

	if _, err := f.svc.CreateAccount(ctx, "+15550000001"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if f.provider.Creates() != 1 {
		t.Fatalf("expected one provider wallet, got %d", f.provider.Creates())
	}
}

func TestCreateAccountConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateAccount(ctx, "+15550000002")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, exists int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAccountExists):
			exists++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || exists != 7 || f.provider.Creates() != 1 {
		t.Fatalf("ok=%d exists=%d creates=%d", ok, exists, f.provider.Creates())
	}
}

func TestCreateAccountProviderFailureReleasesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.provider.CreateErr = &blockchain.ProviderError{Op: "create_wallet", Message: "down"}
	_, err := f.svc.CreateAccount(ctx, "+15550000003")
	var pe *blockchain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected provider error, got %v", err)
	}

	f.provider.CreateErr = nil
	if _, err := f.svc.CreateAccount(ctx, "+15550000003"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestCreateAccountSurvivesQRFailure(t *testing.T) {
	f := newFixture(t)
	f.qr.Err = errors.New("redis down")

	acct, err := f.svc.CreateAccount(context.Background(), "+15550000004")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.QRURL != "" {
		t.Fatalf("expected empty qr url, got %q", acct.QRURL)
	}
}

func TestCredentialIsSealed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateAccount(ctx, "+15550000005"); err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, err := f.accounts.FindByPhone(ctx, "+15550000005")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(stored.Credential) == secret.CredentialLength {
		t.Fatalf("credential stored unsealed")
	}

	// provider auth succeeds only with the original password
	f.provider.SetBalance(stored.WalletID, 42)
	bal, err := f.svc.Balance(ctx, "+15550000005")
	if err != nil || bal != 42 {
		t.Fatalf("balance=%d err=%v", bal, err)
	}
}

func TestBalanceUnknownAccount(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Balance(context.Background(), "+1nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPayByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	from, _ := f.svc.CreateAccount(ctx, "+1a")
	to, _ := f.svc.CreateAccount(ctx, "+1b")
	f.provider.SetBalance(from.WalletID, 10_000)

	r, err := f.svc.PayByPhone(ctx, "+1a", "+1b", 2_500)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if r.RecipientPhone != "+1b" || r.Address != to.Address {
		t.Fatalf("unexpected receipt %+v", r)
	}

	pays := f.provider.Pays()
	if len(pays) != 1 || pays[0].To != to.Address || pays[0].Amount != 2_500 || pays[0].GUID != from.WalletID {
		t.Fatalf("unexpected provider calls %+v", pays)
	}

	history, err := f.svc.Transactions(ctx, "+1b", 3)
	if err != nil || len(history) != 1 || history[0].Amount != 2_500 {
		t.Fatalf("history=%+v err=%v", history, err)
	}
}

func TestPayByPhoneMissingParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.svc.CreateAccount(ctx, "+1a")

	cases := []struct{ from, to string }{
		{"+1a", "+1missing"},
		{"+1missing", "+1a"},
		{"+1x", "+1y"},
	}
	for _, tc := range cases {
		if _, err := f.svc.PayByPhone(ctx, tc.from, tc.to, 1); !errors.Is(err, ErrPartyNotFound) {
			t.Fatalf("%s -> %s: expected ErrPartyNotFound, got %v", tc.from, tc.to, err)
		}
	}
	if n := len(f.provider.Pays()); n != 0 {
		t.Fatalf("no payment may be attempted, got %d", n)
	}
}

func TestPayByPhoneRejectsSelfAndNonPositive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.PayByPhone(ctx, "+1a", "+1a", 10); !errors.Is(err, ErrSelfPayment) {
		t.Fatalf("expected ErrSelfPayment, got %v", err)
	}
	if _, err := f.svc.PayByAddress(ctx, "+1a", "1addr", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPayByAddressProviderError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.svc.CreateAccount(ctx, "+1a")

	_, err := f.svc.PayByAddress(ctx, "+1a", "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", 5)
	var pe *blockchain.ProviderError
	if !errors.As(err, &pe) || pe.Message != "Insufficient funds" {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	history, _ := f.svc.Transactions(ctx, "+1a", 3)
	if len(history) != 0 {
		t.Fatalf("failed payment recorded: %+v", history)
	}
}

func TestRegenerateQR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.qr.Err = errors.New("down")
	acct, _ := f.svc.CreateAccount(ctx, "+1a")
	f.qr.Err = nil

	u, err := f.svc.RegenerateQR(ctx, "+1a")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if u != "https://qr.test/"+acct.Address {
		t.Fatalf("unexpected url %s", u)
	}
	stored, _ := f.svc.Account(ctx, "+1a")
	if stored.QRURL != u {
		t.Fatalf("url not persisted: %+v", stored)
	}
	if n := f.qr.Calls(); n != 2 {
		t.Fatalf("expected create and regenerate renders, got %d", n)
	}
}
