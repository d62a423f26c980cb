package model

import (
	"database/sql"
	"time"
)

// Payment is a local record of a payment executed through the wallet provider.
type Payment struct {
	ID               string         `db:"id"`
	SenderPhone      string         `db:"sender_phone"`
	RecipientPhone   sql.NullString `db:"recipient_phone"`
	RecipientAddress string         `db:"recipient_address"`
	Amount           int64          `db:"amount"` // satoshi
	TxHash           string         `db:"tx_hash"`
	CreatedAt        time.Time      `db:"created_at"`
}
