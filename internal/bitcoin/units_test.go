package bitcoin

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToSatoshi(t *testing.T) {
	tests := []struct {
		unit   string
		amount string
		want   int64
	}{
		{"BTC", "1", 100000000},
		{"btc", "0.5", 50000000},
		{"cbtc", "1", 1000000},
		{"mBTC", "1", 100000},
		{"bit", "1", 100},
		{"Bit", "2.5", 250},
		{"xyz", "5.9", 5},
		{"satoshi", "42", 42},
		{"BTC", "0.000000019", 1},
		{"xyz", "-5.9", -5},
	}

	for _, tc := range tests {
		t.Run(tc.unit+"_"+tc.amount, func(t *testing.T) {
			got := ToSatoshi(tc.unit, decimal.RequireFromString(tc.amount))
			if got != tc.want {
				t.Fatalf("ToSatoshi(%q, %s) = %d, want %d", tc.unit, tc.amount, got, tc.want)
			}
		})
	}
}

func TestSatoshiRange(t *testing.T) {
	tests := []struct {
		unit    string
		amount  string
		want    int64
		wantErr bool
	}{
		{unit: "BTC", amount: "1", want: 100000000},
		{unit: "BTC", amount: "21000000", want: 2100000000000000},
		{unit: "xyz", amount: "-5.9", want: -5},
		{unit: "BTC", amount: "21000000.00000001", wantErr: true},
		// these wrap to 1, MinInt64 and a large positive value without the check
		{unit: "BTC", amount: "184467440737.09551617", wantErr: true},
		{unit: "BTC", amount: "92233720368.54775808", wantErr: true},
		{unit: "BTC", amount: "1e30", wantErr: true},
		{unit: "sat", amount: "-1e30", wantErr: true},
		{unit: "mbtc", amount: "1e20", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.unit+"_"+tc.amount, func(t *testing.T) {
			got, err := Satoshi(tc.unit, decimal.RequireFromString(tc.amount))
			if tc.wantErr {
				if err != ErrInvalidAmount {
					t.Fatalf("Satoshi(%q, %s) = %d, %v; want ErrInvalidAmount", tc.unit, tc.amount, got, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("Satoshi(%q, %s) = %d, %v; want %d", tc.unit, tc.amount, got, err, tc.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("abc"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	d, err := ParseAmount(" 0.25 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("unexpected amount %s", d)
	}
}

func TestFormatBTC(t *testing.T) {
	cases := map[int64]string{
		100000000: "1",
		50000000:  "0.5",
		1:         "0.00000001",
		0:         "0",
	}
	for in, want := range cases {
		if got := FormatBTC(in); got != want {
			t.Fatalf("FormatBTC(%d) = %q, want %q", in, got, want)
		}
	}
}
