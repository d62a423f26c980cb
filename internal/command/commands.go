package command

import (
	"context"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/service/wallet"
)

// Wallets is the wallet service as seen by the command handlers.
type Wallets interface {
	CreateAccount(ctx context.Context, phone string) (model.Account, error)
	Account(ctx context.Context, phone string) (model.Account, error)
	Balance(ctx context.Context, phone string) (int64, error)
	PayByAddress(ctx context.Context, phone, address string, amount int64) (wallet.Receipt, error)
	PayByPhone(ctx context.Context, phone, target string, amount int64) (wallet.Receipt, error)
	RegenerateQR(ctx context.Context, phone string) (string, error)
	Transactions(ctx context.Context, phone string, limit int) ([]model.Payment, error)
}

type handlers struct {
	wallets Wallets
	notify  ReplyChannel
	router  *Router
}

// New builds a router with the full command set registered.
func New(wallets Wallets, replies ReplyChannel, opts ...Option) *Router {
	r := NewRouter(replies, opts...)
	h := &handlers{wallets: wallets, notify: replies, router: r}

	r.Register("help", "help [command]", "list commands or show usage", HandlerFunc(h.help))
	r.Register("create_account", "create_account", "create your bitcoin wallet", HandlerFunc(h.createAccount))
	r.Register("balance", "balance", "show your wallet balance", HandlerFunc(h.balance))
	r.Register("send", "send <amount> <unit> <phone|address>", "send bitcoin to a phone number or address", HandlerFunc(h.send))
	r.Register("request", "request <amount> [unit] <phone>", "ask a phone number to send you bitcoin", HandlerFunc(h.request))
	r.Register("transactions", "transactions", "show your last 3 transactions", HandlerFunc(h.transactions))
	r.Register("address", "address", "show your wallet address and QR code", HandlerFunc(h.address))

	return r
}
