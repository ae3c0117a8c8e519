package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the provider API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the provider API key",
	Long: `Prompt for the provider API key and store it locally.

The key is read without echo when stdin is a terminal. Only a minimum
length is checked here; a bad key is rejected by the provider on first use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "Enter API key: ")

		var key string
		if term.IsTerminal(int(os.Stdin.Fd())) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			key = string(raw)
		} else {
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() {
				return fmt.Errorf("read key: %w", scanner.Err())
			}
			key = scanner.Text()
		}

		if err := kv.SetAPIKey(strings.TrimSpace(key)); err != nil {
			return err
		}
		fmt.Println("API key stored.")
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := kv.ClearAPIKey(); err != nil {
			return fmt.Errorf("clear key: %w", err)
		}
		fmt.Println("API key removed.")
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyClearCmd)
}
