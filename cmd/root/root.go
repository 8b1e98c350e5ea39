// Package root contains the root command for the application
package root

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"merchant-statements/internal/config"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded configuration, populated before any subcommand runs
	Cfg *config.Config

	// Flag overrides applied on top of the configuration
	flagYear    int
	flagMonth   int
	flagWorkers int

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "merchant-statements",
		Short: "Generate and deliver monthly merchant account statements.",
		Long: `merchant-statements builds per-merchant account statement documents from
monthly transaction datasets and delivers them by email. Every unit of work
is recorded in a completion ledger, so an interrupted run can be re-executed
and only the unfinished merchants are retried.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}

			// Command line beats config file and environment.
			if flagYear != 0 {
				cfg.Period.Year = flagYear
			}
			if flagMonth != 0 {
				cfg.Period.Month = flagMonth
			}
			if flagWorkers != 0 {
				cfg.Run.Workers = flagWorkers
			}
			if cfg.Period.Month != 0 {
				p := models.Period{Year: cfg.Period.Year, Month: cfg.Period.Month}
				if !p.Valid() {
					return fmt.Errorf("invalid period: %d/%d", cfg.Period.Month, cfg.Period.Year)
				}
			}

			Cfg = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)
			return nil
		},
	}
)

// Init registers the persistent flags. Called from main before Execute.
func Init() {
	Cmd.PersistentFlags().IntVarP(&flagYear, "year", "y", 0, "Reporting year (defaults to the previous calendar month)")
	Cmd.PersistentFlags().IntVarP(&flagMonth, "month", "m", 0, "Reporting month 1-12 (defaults to the previous calendar month)")
	Cmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "Concurrent workers per pass (overrides configuration)")
}

// GetLogger returns the configured structured logger for commands.
func GetLogger() logging.Logger {
	return logging.NewLogrusAdapterFromLogger(Log)
}

// ResolvedPeriod returns the reporting period after flag and config
// resolution.
func ResolvedPeriod() models.Period {
	return Cfg.ResolvedPeriod(time.Now())
}
