/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/salimtrading/staffportal/config"
	"github.com/salimtrading/staffportal/internal/logger"
	"github.com/salimtrading/staffportal/internal/mail"
	"github.com/salimtrading/staffportal/internal/mq"
	"github.com/salimtrading/staffportal/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// workerCmd delivers mail queued by servers running with MAIL_DELIVERY=queue.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Delivers queued outbound mail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Log.Level, cfg.LogFormat())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open message queue: %w", err)
		}
		defer broker.Close()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}

		var sender mail.Sender
		sender, err = mail.NewTransport(cfg.Mail, log)
		if err != nil {
			return err
		}
		if objects != nil {
			defer objects.Close()
			sender = mail.NewArchivingSender(sender, objects, log)
		}

		if err := mail.NewWorker(broker, cfg.Mail.Channel, sender, log).Run(ctx); err != nil {
			log.Error("mail worker stopped", zap.Error(err))
			return err
		}
		log.Info("mail worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
