package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shootle/txtcoin/internal/app"
	httpSrv "github.com/Shootle/txtcoin/internal/http"
	"github.com/Shootle/txtcoin/internal/kafka"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SMS webhook and HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.Setup(cfgPath)
		if err != nil {
			return err
		}
		if cfg.Inbound.AuthToken == "" {
			return errors.New("inbound.auth_token is required to verify webhook signatures")
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var sink httpSrv.InboundSink
		switch cfg.Inbound.Mode {
		case "", "inline":
			sink = httpSrv.InlineSink(a.Router)
		case "kafka":
			producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			defer func() { _ = producer.Close() }()
			sink = producer
		default:
			return fmt.Errorf("unknown inbound.mode %q", cfg.Inbound.Mode)
		}

		server := httpSrv.NewServer(cfg, httpSrv.Deps{
			Inbound: sink,
			QR:      a.QR,
			Reports: a.Reports,
			Redis:   a.Redis,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("http server exited", zap.Error(err))
			}
		}

		// inline commands in flight finish within the command timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Command.Timeout+5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
