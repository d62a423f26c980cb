// Package blockchain is a client for the custodial wallet service
// (blockchain.info wallet and merchant API).
package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/metrics"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// ProviderError is an error reported by the wallet service itself, e.g.
// insufficient funds. Message is safe to show to the user.
type ProviderError struct {
	Op      string
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

// errRetryable marks transport and 5xx failures of idempotent reads.
var errRetryable = errors.New("retryable provider failure")

// ErrPaymentUnknown is returned by PayByAddress when the request may have
// reached the provider but no usable answer came back. Funds may have moved.
var ErrPaymentUnknown = errors.New("payment outcome unknown")

type Wallet struct {
	GUID    string `json:"guid"`
	Address string `json:"address"`
	Label   string `json:"label"`
}

type Payment struct {
	Message string `json:"message"`
	TxHash  string `json:"tx_hash"`
	Notice  string `json:"notice"`
}

type Client struct {
	baseURL     string
	apiCode     string
	client      *http.Client
	readRetries int
	minBackoff  time.Duration
}

func New(baseURL, apiCode string, timeout time.Duration, readRetries int) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if readRetries < 1 {
		readRetries = 1
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiCode:     apiCode,
		client:      &http.Client{Timeout: timeout},
		readRetries: readRetries,
		minBackoff:  200 * time.Millisecond,
	}
}

// CreateWallet creates a new hosted wallet protected by password.
func (c *Client) CreateWallet(ctx context.Context, password string) (Wallet, error) {
	q := url.Values{}
	q.Set("password", password)

	var out struct {
		Wallet
		Error string `json:"error"`
	}
	if err := c.do(ctx, "create_wallet", http.MethodPost, "/api/v2/create_wallet", q, &out); err != nil {
		return Wallet{}, err
	}
	if out.Error != "" {
		return Wallet{}, &ProviderError{Op: "create_wallet", Message: out.Error}
	}
	if out.GUID == "" || out.Address == "" {
		return Wallet{}, fmt.Errorf("create_wallet: incomplete response")
	}
	return out.Wallet, nil
}

// Balance returns the wallet balance in satoshi. Transport failures are retried
// with exponential backoff.
func (c *Client) Balance(ctx context.Context, guid, password string) (int64, error) {
	q := url.Values{}
	q.Set("password", password)
	path := "/merchant/" + url.PathEscape(guid) + "/balance"

	b := &backoff.Backoff{
		Min:    c.minBackoff,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < c.readRetries; attempt++ {
		var out struct {
			Balance *int64 `json:"balance"`
			Error   string `json:"error"`
		}
		err := c.do(ctx, "balance", http.MethodGet, path, q, &out)
		if err == nil {
			if out.Error != "" {
				return 0, &ProviderError{Op: "balance", Message: out.Error}
			}
			if out.Balance == nil {
				return 0, fmt.Errorf("balance: missing balance in response")
			}
			return *out.Balance, nil
		}
		if !errors.Is(err, errRetryable) {
			return 0, err
		}
		lastErr = err

		d := b.Duration()
		logger.Log.Warn("wallet provider balance retry",
			zap.Int("attempt", attempt+1), zap.Duration("backoff", d), zap.Error(err))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(d):
		}
	}
	return 0, lastErr
}

// PayByAddress sends amount satoshi from the wallet to address. It is never
// retried: the provider call is not idempotent.
func (c *Client) PayByAddress(ctx context.Context, guid, password, to string, amount int64) (Payment, error) {
	q := url.Values{}
	q.Set("password", password)
	q.Set("to", to)
	q.Set("amount", strconv.FormatInt(amount, 10))
	path := "/merchant/" + url.PathEscape(guid) + "/payment"

	var out struct {
		Payment
		Error string `json:"error"`
	}
	if err := c.do(ctx, "payment", http.MethodPost, path, q, &out); err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return Payment{}, err
		}
		return Payment{}, fmt.Errorf("%w: %v", ErrPaymentUnknown, err)
	}
	if out.Error != "" {
		return Payment{}, &ProviderError{Op: "payment", Message: out.Error}
	}
	return out.Payment, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, out any) (err error) {
	defer func() {
		outcome := "ok"
		var pe *ProviderError
		if err != nil && !errors.As(err, &pe) {
			outcome = "error"
		}
		metrics.ProviderRequestsTotal.WithLabelValues(op, outcome).Inc()
	}()

	if c.apiCode != "" {
		q.Set("api_code", c.apiCode)
	}
	// the query carries the wallet password: never log the full URL
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	logger.Log.Debug("wallet provider request", zap.String("op", op), zap.String("path", path))

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, errRetryable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: %w: read body: %v", op, errRetryable, err)
	}

	if res.StatusCode >= 500 {
		return fmt.Errorf("%s: %w: status=%d", op, errRetryable, res.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		// the provider answers some 4xx errors with plain text
		if res.StatusCode/100 != 2 {
			return &ProviderError{Op: op, Message: strings.TrimSpace(string(body))}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
