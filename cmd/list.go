package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caelumsys/caelum/command"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered commands",
	Long: `List every registered command in registration order.

Use --filter to fuzzy search the patterns, best match first.

Examples:
  caelum list
  caelum list --filter file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		reg := e.Registry()
		var templates []*command.Template
		if listFilter != "" {
			for _, p := range reg.Search(listFilter, 0) {
				if t, ok := reg.Get(p); ok {
					templates = append(templates, t)
				}
			}
		} else {
			templates = reg.Templates()
		}

		if len(templates) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No commands found.")
			return nil
		}

		width := 0
		for _, t := range templates {
			width = max(width, len(t.Pattern()))
		}
		for _, t := range templates {
			fmt.Fprintln(cmd.OutOrStdout(), renderTemplate(t, width))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "fuzzy filter on command patterns")
	rootCmd.AddCommand(listCmd)
}
