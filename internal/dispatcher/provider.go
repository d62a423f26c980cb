package dispatcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Shootle/txtcoin/internal/model"
)

type Provider interface {
	Name() string
	Ready() bool
	Acquire() bool
	Send(ctx context.Context, from string, sms model.SMS) error
}

// HTTPProvider posts form encoded To/From/Body to a Twilio style messages
// endpoint, authenticating with HTTP basic auth when credentials are set.
type HTTPProvider struct {
	name     string
	endpoint string
	username string
	password string
	client   *http.Client
	br       *Breaker
}

func NewHTTPProvider(
	name, baseURL, path, username, password string,
	timeoutMs, failThreshold, openForMs int,
) *HTTPProvider {
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}

	if failThreshold <= 0 {
		failThreshold = 3
	}

	if openForMs <= 0 {
		openForMs = 15000
	}

	return &HTTPProvider{
		name:     name,
		endpoint: strings.TrimRight(baseURL, "/") + path,
		username: username,
		password: password,
		client:   &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:       NewBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (p *HTTPProvider) Name() string  { return p.name }
func (p *HTTPProvider) Ready() bool   { return p.br.Ready() }
func (p *HTTPProvider) Acquire() bool { return p.br.TryAcquire() }

func (p *HTTPProvider) Send(ctx context.Context, from string, sms model.SMS) error {
	if err := p.post(ctx, from, sms); err != nil {
		p.br.OnFailure()
		return err
	}

	p.br.OnSuccess()

	return nil
}

func (p *HTTPProvider) post(ctx context.Context, from string, sms model.SMS) error {
	form := url.Values{}
	form.Set("To", sms.To)
	form.Set("Body", sms.Body)
	if from != "" {
		form.Set("From", from)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.username != "" {
		req.SetBasicAuth(p.username, p.password)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("provider=%s status=%d", p.name, res.StatusCode)
	}

	return nil
}
