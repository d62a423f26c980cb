package command

import (
	"context"
	"strings"

	"github.com/Shootle/txtcoin/internal/bitcoin"
	"github.com/Shootle/txtcoin/internal/model"
)

const historySize = 3

func (h *handlers) help(_ context.Context, cmd model.Command) (string, error) {
	if len(cmd.Args) > 0 {
		name := cmd.Args[0]
		e, ok := h.router.commands[name]
		if !ok {
			return "", invalidCommand(name)
		}
		return e.usage + ": " + e.summary, nil
	}
	return "Commands: " + strings.Join(h.router.Names(), ", ") + ". Text 'help <command>' for usage.", nil
}

func (h *handlers) transactions(ctx context.Context, cmd model.Command) (string, error) {
	ps, err := h.wallets.Transactions(ctx, cmd.Sender, historySize)
	if err != nil {
		return "", err
	}
	if len(ps) == 0 {
		return "No transactions yet.", nil
	}

	lines := make([]string, 0, len(ps)+1)
	lines = append(lines, "Last transactions:")
	for _, p := range ps {
		lines = append(lines, describePayment(cmd.Sender, p))
	}
	return strings.Join(lines, "\n"), nil
}

func describePayment(phone string, p model.Payment) string {
	amount := bitcoin.FormatBTC(p.Amount) + " BTC"
	day := p.CreatedAt.Format("2006-01-02")

	if p.SenderPhone == phone {
		to := p.RecipientAddress
		if p.RecipientPhone.Valid {
			to = p.RecipientPhone.String
		}
		return "-" + amount + " to " + to + " (" + day + ")"
	}
	return "+" + amount + " from " + p.SenderPhone + " (" + day + ")"
}
