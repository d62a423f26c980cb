// Package app wires configuration into the running components shared by the
// serve and worker commands.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shootle/txtcoin/internal/blockchain"
	"github.com/Shootle/txtcoin/internal/command"
	"github.com/Shootle/txtcoin/internal/config"
	"github.com/Shootle/txtcoin/internal/db"
	"github.com/Shootle/txtcoin/internal/dispatcher"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/metrics"
	"github.com/Shootle/txtcoin/internal/qr"
	"github.com/Shootle/txtcoin/internal/repository"
	"github.com/Shootle/txtcoin/internal/secret"
	"github.com/Shootle/txtcoin/internal/service/wallet"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Setup loads configuration and initializes the global logger.
func Setup(cfgPath string) (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	metrics.MustRegister(prometheus.DefaultRegisterer)
	return cfg, nil
}

type App struct {
	MySQL      *sqlx.DB
	ClickHouse *sqlx.DB // nil when no DSN is configured
	Redis      *redis.Client
	QR         *qr.Service
	Reports    repository.CHCommandsRepository // nil without ClickHouse
	Router     *command.Router
}

// New connects every store and builds the command router.
func New(cfg config.Config) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	box, err := secret.NewBox(cfg.Secret.Key)
	if err != nil {
		return nil, fmt.Errorf("secret.key: %w", err)
	}

	replies, err := NewReplyChannel(cfg)
	if err != nil {
		return nil, err
	}

	if a.MySQL, err = db.OpenMySQL(cfg.MySQL); err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	if a.Redis, err = db.OpenRedis(cfg.Redis); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	opts := []command.Option{command.WithTimeout(cfg.Command.Timeout)}
	if strings.TrimSpace(cfg.ClickHouse.DSN) != "" {
		if a.ClickHouse, err = db.OpenClickHouse(cfg.ClickHouse); err != nil {
			return nil, fmt.Errorf("clickhouse connect: %w", err)
		}
		a.Reports = repository.NewCHCommandsRepository(a.ClickHouse)
		opts = append(opts, command.WithRecorder(a.Reports))
	} else {
		logger.Log.Warn("clickhouse disabled: command events are not recorded")
	}

	a.QR = qr.NewService(a.Redis, cfg.HTTP.PublicBaseURL, cfg.QR.Size, cfg.QR.TTL)

	provider := blockchain.New(
		cfg.WalletProvider.BaseURL,
		cfg.WalletProvider.APICode,
		cfg.WalletProvider.Timeout,
		cfg.WalletProvider.ReadRetries,
	)

	wallets := wallet.New(
		repository.NewAccountsRepository(a.MySQL, 5*time.Minute),
		repository.NewPaymentsRepository(a.MySQL),
		provider,
		a.QR,
		box,
	)

	a.Router = command.New(wallets, replies, opts...)

	logger.Log.Info("app ready",
		zap.Strings("commands", a.Router.Names()),
		zap.Bool("audit", a.Reports != nil),
	)
	return a, nil
}

// NewReplyChannel builds the outbound SMS dispatcher from the enabled providers.
func NewReplyChannel(cfg config.Config) (*dispatcher.Dispatcher, error) {
	var provs []dispatcher.Provider
	for _, pc := range cfg.Providers {
		if !pc.Enabled || strings.TrimSpace(pc.BaseURL) == "" {
			continue
		}
		provs = append(provs,
			dispatcher.NewHTTPProvider(
				pc.Name,
				strings.TrimRight(pc.BaseURL, "/"),
				pc.Path,
				pc.Username,
				pc.Password,
				pc.TimeoutMs,
				pc.Breaker.FailThreshold,
				pc.Breaker.OpenForMs,
			),
		)
	}
	if len(provs) == 0 {
		return nil, errors.New("no sms providers enabled in config")
	}
	if cfg.Dispatcher.From == "" {
		return nil, errors.New("dispatcher.from is required")
	}
	return dispatcher.NewDispatcher(provs, cfg.Dispatcher.MaxAttempts, cfg.Dispatcher.From), nil
}

func (a *App) Close() {
	if a.ClickHouse != nil {
		_ = a.ClickHouse.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.MySQL != nil {
		_ = a.MySQL.Close()
	}
}
