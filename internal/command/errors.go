package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shootle/txtcoin/internal/blockchain"
	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/service/wallet"
)

type Kind int

const (
	KindInvalidCommand Kind = iota
	KindInvalidArgument
	KindAccountExists
	KindAccountNotFound
	KindProviderError
	KindTransportError
)

func (k Kind) Outcome() model.Outcome {
	switch k {
	case KindInvalidCommand:
		return model.OutcomeInvalidCommand
	case KindInvalidArgument:
		return model.OutcomeInvalidArgument
	case KindAccountExists:
		return model.OutcomeAccountExists
	case KindAccountNotFound:
		return model.OutcomeAccountNotFound
	case KindProviderError:
		return model.OutcomeProviderError
	default:
		return model.OutcomeTransportError
	}
}

// Error is a handler failure whose Detail is shown to the user.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func invalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Detail: fmt.Sprintf(format, args...)}
}

func invalidCommand(name string) *Error {
	if name == "" {
		name = "(empty)"
	}
	return &Error{Kind: KindInvalidCommand, Detail: name + " is an invalid command"}
}

const (
	unavailableReply    = "Error: service temporarily unavailable, please try again"
	paymentUnknownReply = "Error: payment status unknown, check balance and transactions before retrying"
)

// classify turns any handler error into the reply text and outcome sent back
// to the user. Unknown errors are transport failures.
func classify(err error) (string, Kind) {
	var ce *Error
	if errors.As(err, &ce) {
		return "Error: " + ce.Detail, ce.Kind
	}

	var pe *blockchain.ProviderError
	switch {
	case errors.Is(err, wallet.ErrAccountExists):
		return "Error: Account already exists!", KindAccountExists
	case errors.Is(err, wallet.ErrAccountNotFound):
		return "Error: Account does not exist!", KindAccountNotFound
	case errors.Is(err, wallet.ErrPartyNotFound):
		return "Error: Your Account or the Target Account does not exist!", KindAccountNotFound
	case errors.Is(err, wallet.ErrSelfPayment):
		return "Error: You cannot send to yourself", KindInvalidArgument
	case errors.Is(err, wallet.ErrInvalidAmount):
		return "Error: Amount must be positive", KindInvalidArgument
	case errors.Is(err, blockchain.ErrPaymentUnknown):
		return paymentUnknownReply, KindTransportError
	case errors.As(err, &pe):
		if pe.Op == "payment" {
			return "Error: " + pe.Message + " (satoshi)", KindProviderError
		}
		return "Error: " + pe.Message, KindProviderError
	case errors.Is(err, context.DeadlineExceeded):
		return "Error: request timed out, please try again", KindTransportError
	}
	return unavailableReply, KindTransportError
}
