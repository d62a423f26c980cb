package command

import (
	"context"
	"fmt"

	"github.com/Shootle/txtcoin/internal/bitcoin"
	"github.com/Shootle/txtcoin/internal/model"
)

func (h *handlers) createAccount(ctx context.Context, cmd model.Command) (string, error) {
	acct, err := h.wallets.CreateAccount(ctx, cmd.Sender)
	if err != nil {
		return "", err
	}
	reply := "Account created! Your address: " + acct.Address
	if acct.QRURL != "" {
		reply += " " + acct.QRURL
	}
	return reply, nil
}

func (h *handlers) balance(ctx context.Context, cmd model.Command) (string, error) {
	sat, err := h.wallets.Balance(ctx, cmd.Sender)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Current balance: %s BTC", bitcoin.FormatBTC(sat)), nil
}

// address replies with the wallet address, regenerating a missing QR code.
func (h *handlers) address(ctx context.Context, cmd model.Command) (string, error) {
	acct, err := h.wallets.Account(ctx, cmd.Sender)
	if err != nil {
		return "", err
	}

	qrURL := acct.QRURL
	if qrURL == "" {
		if qrURL, err = h.wallets.RegenerateQR(ctx, cmd.Sender); err != nil {
			// the address alone is still a useful answer
			return "Your address: " + acct.Address, nil
		}
	}
	return "Your address: " + acct.Address + " " + qrURL, nil
}
