package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/caelumsys/caelum/engine"
)

const prompt = "caelum> "

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Run commands interactively",
	Long: `Read commands line by line and print each result.

Type "exit" or "quit", or send EOF, to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		interactive := false
		if f, ok := cmd.InOrStdin().(*os.File); ok {
			interactive = term.IsTerminal(int(f.Fd()))
		}
		return repl(cmd, e, cmd.InOrStdin(), interactive)
	},
}

func repl(cmd *cobra.Command, e *engine.Engine, in io.Reader, interactive bool) error {
	out := cmd.OutOrStdout()
	if interactive {
		fmt.Fprintln(out, `Type "help" to get started, "exit" to leave.`)
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		fmt.Fprintln(out, render(e.Execute(cmd.Context(), line)))
	}
	return scanner.Err()
}

func init() {
	rootCmd.AddCommand(replCmd)
}
