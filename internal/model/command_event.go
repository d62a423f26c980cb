package model

import "time"

type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeInvalidCommand  Outcome = "invalid_command"
	OutcomeInvalidArgument Outcome = "invalid_argument"
	OutcomeAccountExists   Outcome = "account_exists"
	OutcomeAccountNotFound Outcome = "account_not_found"
	OutcomeProviderError   Outcome = "provider_error"
	OutcomeTransportError  Outcome = "transport_error"
)

func (o Outcome) String() string { return string(o) }

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeOK, OutcomeInvalidCommand, OutcomeInvalidArgument, OutcomeAccountExists,
		OutcomeAccountNotFound, OutcomeProviderError, OutcomeTransportError:
		return true
	}
	return false
}

// CommandEvent is the audit row written to ClickHouse per dispatched command.
type CommandEvent struct {
	Sender     string    `db:"sender" json:"sender"`
	Command    string    `db:"command" json:"command"`
	Args       string    `db:"args" json:"args"`
	Outcome    Outcome   `db:"outcome" json:"outcome"`
	Reply      string    `db:"reply" json:"reply"`
	DurationMs int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
