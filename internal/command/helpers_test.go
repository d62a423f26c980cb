package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Shootle/txtcoin/internal/blockchain/blockchaintest"
	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/qr/qrtest"
	"github.com/Shootle/txtcoin/internal/repository"
	"github.com/Shootle/txtcoin/internal/secret"
	"github.com/Shootle/txtcoin/internal/service/wallet"
)

type sentSMS struct {
	To   string
	Body string
}

type fakeReplies struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeReplies) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentSMS{To: to, Body: body})
	return f.err
}

// to returns the messages delivered to phone.
func (f *fakeReplies) to(phone string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.To == phone {
			out = append(out, s.Body)
		}
	}
	return out
}

func (f *fakeReplies) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []model.CommandEvent
}

func (f *fakeRecorder) Insert(_ context.Context, ev model.CommandEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return errors.New("clickhouse unavailable") // must not affect the reply
}

type env struct {
	router   *Router
	replies  *fakeReplies
	provider *blockchaintest.Provider
	accounts repository.AccountsRepository
	wallets  *wallet.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	box, err := secret.NewBox("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	e := &env{
		replies:  &fakeReplies{},
		provider: blockchaintest.New(),
		accounts: repository.NewMemoryAccounts(),
	}
	e.wallets = wallet.New(e.accounts, repository.NewMemoryPayments(), e.provider, &qrtest.Renderer{}, box)
	e.router = New(e.wallets, e.replies)
	return e
}

// open creates an account for phone and funds it.
func (e *env) open(t *testing.T, phone string, satoshi int64) model.Account {
	t.Helper()
	acct, err := e.wallets.CreateAccount(context.Background(), phone)
	if err != nil {
		t.Fatalf("create %s: %v", phone, err)
	}
	e.provider.SetBalance(acct.WalletID, satoshi)
	return acct
}

// single dispatches text from sender and returns the one reply it produced.
func (e *env) single(t *testing.T, sender, text string) string {
	t.Helper()
	before := len(e.replies.to(sender))
	e.router.Dispatch(context.Background(), sender, text)
	got := e.replies.to(sender)
	if len(got) != before+1 {
		t.Fatalf("%q: expected exactly one reply, got %d", text, len(got)-before)
	}
	return got[len(got)-1]
}
