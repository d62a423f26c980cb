// Package bitcoin holds the pure helpers used by the SMS commands: unit
// conversion to satoshi and recipient classification.
package bitcoin

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// unitExponent maps upper-cased unit names to the power of ten that turns one
// unit into satoshi.
var unitExponent = map[string]int32{
	"BTC":  8,
	"CBTC": 6,
	"MBTC": 5,
	"BIT":  2,
}

// MaxSatoshi is the total bitcoin supply, 21e6 BTC. No valid amount exceeds it.
var MaxSatoshi = decimal.New(21_000_000, 8)

// ToSatoshi converts amount expressed in unit to satoshi, truncating toward zero.
// Unknown units are taken as satoshi already. The result wraps for amounts
// beyond int64; user input goes through Satoshi instead.
func ToSatoshi(unit string, amount decimal.Decimal) int64 {
	exp := unitExponent[strings.ToUpper(unit)]
	return amount.Shift(exp).Truncate(0).IntPart()
}

// Satoshi is ToSatoshi with a range check: amounts whose magnitude exceeds
// MaxSatoshi return ErrInvalidAmount.
func Satoshi(unit string, amount decimal.Decimal) (int64, error) {
	sat := amount.Shift(unitExponent[strings.ToUpper(unit)]).Truncate(0)
	if sat.Abs().GreaterThan(MaxSatoshi) {
		return 0, ErrInvalidAmount
	}
	return sat.IntPart(), nil
}

// ParseAmount parses a user supplied decimal amount such as "0.5" or "12".
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatBTC renders a satoshi amount as BTC without trailing zeros.
func FormatBTC(satoshi int64) string {
	return decimal.New(satoshi, -8).String()
}
