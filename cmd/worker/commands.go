package worker

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shootle/txtcoin/internal/app"
	"github.com/Shootle/txtcoin/internal/kafka"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Consume inbound SMS from Kafka and run them as commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := app.Setup(cfgPath)
		if err != nil {
			return err
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "txtcoin-commands"
		}
		consumer := kafka.NewConsumerFromConfig(kafka.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        groupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer consumer.Close()

		w := worker.NewCommands(consumer, a.Router, worker.NewRedisSeen(a.Redis, cfg.Inbound.DedupTTL))
		if cfg.Kafka.Workers > 0 {
			w.Workers = cfg.Kafka.Workers
		}

		// graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Log.Info("commands worker started",
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group", groupID),
			zap.Int("workers", w.Workers),
		)

		err = w.Run(ctx)
		logger.Log.Info("commands worker stopped", zap.Int64("lag", consumer.Lag()))
		return err
	},
}
