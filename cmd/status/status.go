// Package status reports completion ledger progress for a period.
package status

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"merchant-statements/cmd/root"
	"merchant-statements/internal/ledger"
	"merchant-statements/internal/models"
	"merchant-statements/internal/pipeline"
)

// Cmd represents the status command
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Show completion ledger counts for the reporting period",
	Long: `Status loads the completion ledger for the reporting period and prints
success and failure counts per work kind.

Example:
  merchant-statements status -y 2025 -m 7`,
	RunE: statusFunc,
}

func statusFunc(cmd *cobra.Command, args []string) error {
	period := root.ResolvedPeriod()
	path := pipeline.LedgerPath(root.Cfg.Data.StateDir, period)

	led, err := ledger.Load(path, root.GetLogger())
	if err != nil {
		return err
	}

	fmt.Printf("Period:  %s\n", period.Text())
	fmt.Printf("Ledger:  %s\n", path)
	fmt.Printf("Records: %d\n", led.Len())

	counts := led.Counts()
	if len(counts) == 0 {
		fmt.Println("No work recorded yet.")
		return nil
	}

	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		byOutcome := counts[models.WorkKind(kind)]
		fmt.Printf("  %-30s success=%d failure=%d\n", kind,
			byOutcome[ledger.OutcomeSuccess], byOutcome[ledger.OutcomeFailure])
	}
	return nil
}
