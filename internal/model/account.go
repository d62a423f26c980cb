package model

import "time"

type AccountStatus string

const (
	AccountPending AccountStatus = "pending"
	AccountActive  AccountStatus = "active"
)

func (s AccountStatus) String() string { return string(s) }

// Account binds a phone number to a custodial wallet.
// Credential holds the sealed wallet password; it never leaves the service.
type Account struct {
	Phone      string        `db:"phone"`
	WalletID   string        `db:"wallet_id"`
	Credential string        `db:"credential"`
	Address    string        `db:"address"`
	QRURL      string        `db:"qr_url"`
	Status     AccountStatus `db:"status"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

func (a Account) Active() bool { return a.Status == AccountActive }
