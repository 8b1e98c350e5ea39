// Package deliver runs only the delivery pass for already generated
// documents.
package deliver

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"merchant-statements/cmd/root"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/pipeline"
)

// Cmd represents the deliver command
var Cmd = &cobra.Command{
	Use:   "deliver",
	Short: "Deliver already generated statements by email",
	Long: `Deliver sends one email per merchant with every statement document
generated for the reporting period attached. Generation is skipped: a
merchant qualifies for delivery once at least one of their documents was
generated successfully, in this run or a previous one.

Unless mail.send_to_all is enabled, every message is redirected to the
configured test recipient.

Example:
  merchant-statements deliver -y 2025 -m 7`,
	RunE: deliverFunc,
}

func deliverFunc(cmd *cobra.Command, args []string) error {
	cfg := root.Cfg
	cfg.Run.GenerateFee = false
	cfg.Run.GenerateRefund = false
	cfg.Run.GenerateAcquiring = false
	cfg.Run.Deliver = true

	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		return fmt.Errorf("mail.host and mail.from must be configured for delivery")
	}
	if !cfg.Mail.SendToAll && cfg.Mail.TestRecipient == "" {
		return fmt.Errorf("mail.test_recipient must be configured unless mail.send_to_all is enabled")
	}

	logger := root.GetLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewFromConfig(cfg, root.ResolvedPeriod(), logger)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	for _, pass := range result.Summary.Passes {
		logger.Info("Pass summary",
			logging.F("work_kind", pass.WorkKind),
			logging.F("pending", pass.Pending),
			logging.F("succeeded", pass.Succeeded),
			logging.F("failed", pass.Failed),
			logging.F("skipped", pass.Skipped))
	}
	return nil
}
