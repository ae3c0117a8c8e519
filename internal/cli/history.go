package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/medilex/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past lookups, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		items := store.NewHistory(kv, logger).Load()
		if len(items) == 0 {
			fmt.Println("No history yet.")
			return nil
		}
		for _, it := range items {
			ts := time.UnixMilli(it.Timestamp).Format("2006-01-02 15:04")
			fmt.Printf("%s  %s\n", dimStyle.Render(ts), it.Term)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.NewHistory(kv, logger).Clear(); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}
