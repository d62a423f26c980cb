// Package blockchaintest provides an in-memory wallet provider for tests.
package blockchaintest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shootle/txtcoin/internal/blockchain"
)

// PayCall records one PayByAddress invocation.
type PayCall struct {
	GUID     string
	Password string
	To       string
	Amount   int64
}

// Provider is a fake custodial wallet service. Balances are keyed by guid.
type Provider struct {
	mu       sync.Mutex
	next     int
	wallets  map[string]string // guid -> password
	balances map[string]int64
	pays     []PayCall
	creates  int

	// CreateErr and PayErr, when set, are returned by the matching calls.
	CreateErr error
	PayErr    error
}

func New() *Provider {
	return &Provider{wallets: map[string]string{}, balances: map[string]int64{}}
}

func (p *Provider) CreateWallet(_ context.Context, password string) (blockchain.Wallet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.CreateErr != nil {
		return blockchain.Wallet{}, p.CreateErr
	}
	p.next++
	guid := fmt.Sprintf("guid-%d", p.next)
	p.wallets[guid] = password
	return blockchain.Wallet{GUID: guid, Address: Address(p.next)}, nil
}

func (p *Provider) Balance(_ context.Context, guid, password string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.auth(guid, password); err != nil {
		return 0, err
	}
	return p.balances[guid], nil
}

func (p *Provider) PayByAddress(_ context.Context, guid, password, to string, amount int64) (blockchain.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pays = append(p.pays, PayCall{GUID: guid, Password: password, To: to, Amount: amount})
	if p.PayErr != nil {
		return blockchain.Payment{}, p.PayErr
	}
	if err := p.auth(guid, password); err != nil {
		return blockchain.Payment{}, err
	}
	if p.balances[guid] < amount {
		return blockchain.Payment{}, &blockchain.ProviderError{Op: "payment", Message: "Insufficient funds"}
	}
	p.balances[guid] -= amount
	return blockchain.Payment{Message: "Payment Sent", TxHash: fmt.Sprintf("tx-%d", len(p.pays))}, nil
}

func (p *Provider) auth(guid, password string) error {
	if pw, ok := p.wallets[guid]; !ok || pw != password {
		return &blockchain.ProviderError{Op: "auth", Message: "Invalid wallet or password"}
	}
	return nil
}

// SetBalance seeds the balance of a wallet.
func (p *Provider) SetBalance(guid string, satoshi int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[guid] = satoshi
}

func (p *Provider) Pays() []PayCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PayCall(nil), p.pays...)
}

func (p *Provider) Creates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates
}

const base58 = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Address returns a deterministic 34 character address for n.
func Address(n int) string {
	suffix := make([]byte, 5)
	for i := len(suffix) - 1; i >= 0; i-- {
		suffix[i] = base58[n%len(base58)]
		n /= len(base58)
	}
	return "1BoatSLRHtKNngkdXEeobR76b53LE" + string(suffix)
}
