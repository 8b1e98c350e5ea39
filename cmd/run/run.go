// Package run executes the full statement pipeline for one period.
package run

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"merchant-statements/cmd/root"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/pipeline"
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Run every enabled pass: generation per document kind, then delivery",
	Long: `Run executes the full pipeline for the reporting period: datasets are
loaded and reconciled against the merchant registry, statement documents are
generated for every enabled document kind, and when delivery is enabled each
merchant receives one email with all of their documents attached.

Work already recorded as successful in the completion ledger is never
re-executed, so an interrupted run can simply be started again.

Example:
  merchant-statements run -y 2025 -m 7`,
	RunE: runFunc,
}

func runFunc(cmd *cobra.Command, args []string) error {
	logger := root.GetLogger()
	period := root.ResolvedPeriod()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewFromConfig(root.Cfg, period, logger)
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
	logger.Info("Run summary written", logging.F("file", result.SummaryPath))
	return nil
}
