package app

import (
	"strings"
	"testing"

	"github.com/Shootle/txtcoin/internal/config"
)

func TestNewReplyChannel(t *testing.T) {
	provider := config.ProviderConfig{Name: "twilio", Enabled: true, BaseURL: "https://sms.example/"}

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name:    "no providers",
			cfg:     config.Config{Dispatcher: config.DispatcherConfig{From: "+15550000"}},
			wantErr: "no sms providers",
		},
		{
			name: "disabled provider",
			cfg: config.Config{
				Dispatcher: config.DispatcherConfig{From: "+15550000"},
				Providers:  []config.ProviderConfig{{Name: "off", BaseURL: "https://x"}},
			},
			wantErr: "no sms providers",
		},
		{
			name:    "missing sender number",
			cfg:     config.Config{Providers: []config.ProviderConfig{provider}},
			wantErr: "dispatcher.from",
		},
		{
			name: "ok",
			cfg: config.Config{
				Dispatcher: config.DispatcherConfig{From: "+15550000", MaxAttempts: 2},
				Providers:  []config.ProviderConfig{provider},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewReplyChannel(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil || d == nil {
				t.Fatalf("unexpected err %v", err)
			}
		})
	}
}

func TestNewRejectsMissingSecretKey(t *testing.T) {
	_, err := New(config.Config{})
	if err == nil || !strings.Contains(err.Error(), "secret.key") {
		t.Fatalf("err = %v, want secret.key error", err)
	}
}
