package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var doCmd = &cobra.Command{
	Use:   "do <command...>",
	Short: "Run a single command",
	Long: `Run a single command and print its output.

The exit status is 1 when nothing matched, the arguments could not be
understood or the command itself failed.

Examples:
  caelum do say hello
  caelum do "ping example.com"
  caelum --safe do delete file notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		res := e.Execute(cmd.Context(), strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), render(res))
		if !res.OK() {
			return errCommandFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doCmd)
}
