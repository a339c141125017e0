package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently run commands",
	Long: `Show recently run commands, newest first.

Examples:
  caelum history
  caelum history -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit < 1 {
			return fmt.Errorf("-n must be at least 1, got %d", historyLimit)
		}

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		h := e.History()
		if h == nil {
			return errors.New("history is disabled (history.enabled=false)")
		}
		entries, err := h.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		for _, en := range entries {
			line := fmt.Sprintf("%s  %-8s  %s", en.CreatedAt.Format("2006-01-02 15:04:05"), en.Status, en.Input)
			if en.Status != "ok" {
				line = failStyle.Render(line)
			} else if en.Pattern != "" && !strings.EqualFold(en.Pattern, en.Input) {
				line += hintStyle.Render("  → " + en.Pattern)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
