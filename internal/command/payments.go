package command

import (
	"context"
	"fmt"

	"github.com/Shootle/txtcoin/internal/bitcoin"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/util"
	"go.uber.org/zap"
)

// send <amount> <unit> <recipient>
func (h *handlers) send(ctx context.Context, cmd model.Command) (string, error) {
	if len(cmd.Args) != 3 {
		return "", invalidArgument("usage: send <amount> <unit> <phone|address>")
	}

	amount, err := bitcoin.ParseAmount(cmd.Args[0])
	if err != nil {
		return "", invalidArgument("%s is not a valid amount", cmd.Args[0])
	}
	sat, err := bitcoin.Satoshi(cmd.Args[1], amount)
	if err != nil {
		return "", invalidArgument("%s is not a valid amount", cmd.Args[0])
	}
	recipient := cmd.Args[2]

	if bitcoin.IsWalletAddress(recipient) {
		if _, err := h.wallets.PayByAddress(ctx, cmd.Sender, recipient, sat); err != nil {
			return "", err
		}
		return fmt.Sprintf("Sent %s BTC to %s", bitcoin.FormatBTC(sat), recipient), nil
	}

	target := util.NormalizePhone(recipient)
	if target == "" {
		return "", invalidArgument("%s is not a phone number or address", recipient)
	}

	receipt, err := h.wallets.PayByPhone(ctx, cmd.Sender, target, sat)
	if err != nil {
		return "", err
	}

	h.tell(ctx, receipt.RecipientPhone,
		fmt.Sprintf("You received %s BTC from %s", bitcoin.FormatBTC(sat), cmd.Sender))

	return fmt.Sprintf("Sent %s BTC to %s", bitcoin.FormatBTC(sat), receipt.RecipientPhone), nil
}

// request <amount> [unit] <phone>
func (h *handlers) request(ctx context.Context, cmd model.Command) (string, error) {
	var rawAmount, unit, rawPhone string
	switch len(cmd.Args) {
	case 2:
		rawAmount, unit, rawPhone = cmd.Args[0], "BTC", cmd.Args[1]
	case 3:
		rawAmount, unit, rawPhone = cmd.Args[0], cmd.Args[1], cmd.Args[2]
	default:
		return "", invalidArgument("usage: request <amount> [unit] <phone>")
	}

	amount, err := bitcoin.ParseAmount(rawAmount)
	if err != nil {
		return "", invalidArgument("%s is not a valid amount", rawAmount)
	}
	sat, err := bitcoin.Satoshi(unit, amount)
	if err != nil {
		return "", invalidArgument("%s is not a valid amount", rawAmount)
	}
	if sat <= 0 {
		return "", invalidArgument("Amount must be positive")
	}

	target := util.NormalizePhone(rawPhone)
	if target == "" || bitcoin.IsWalletAddress(rawPhone) {
		return "", invalidArgument("%s is not a phone number", rawPhone)
	}
	if target == cmd.Sender {
		return "", invalidArgument("You cannot request from yourself")
	}

	// the requester must be able to receive the funds
	if _, err := h.wallets.Account(ctx, cmd.Sender); err != nil {
		return "", err
	}

	text := fmt.Sprintf("%s requests %s %s. Reply: send %s %s %s",
		cmd.Sender, amount.String(), unit, amount.String(), unit, cmd.Sender)
	if err := h.notify.Send(ctx, target, text); err != nil {
		return "", fmt.Errorf("deliver request: %w", err)
	}

	return fmt.Sprintf("Request for %s %s sent to %s", amount.String(), unit, target), nil
}

// tell sends a best-effort notification to a third party.
func (h *handlers) tell(ctx context.Context, to, body string) {
	if to == "" {
		return
	}
	if err := h.notify.Send(context.WithoutCancel(ctx), to, body); err != nil {
		logger.Log.Warn("notification not delivered", zap.String("to", to), zap.Error(err))
	}
}
