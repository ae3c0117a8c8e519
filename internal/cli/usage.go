package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/medilex/internal/metrics"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show cumulative lookup and chat statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot := metrics.NewPersistentCollector(kv).GetSnapshot()
		fmt.Print(snapshot.Format())
		return nil
	},
}
