package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// Misc returns the greeting, clock and command discovery commands.
func Misc(reg *command.Registry, opts ...Option) loader.Unit {
	o := newOptions(opts)

	return loader.Static("misc",
		command.Definition{
			Pattern:     "say hello",
			Description: "Greet the user",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return "👋 Hello! I'm Caelum, your command assistant.", nil
			},
		},
		command.Definition{
			Pattern:     "get current time",
			Description: "Show the local time",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return "🕒 Current time: " + o.now().Format("15:04:05"), nil
			},
		},
		command.Definition{
			Pattern:     "get current date",
			Description: "Show today's date",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return "📅 Today is " + o.now().Format("Monday, 2 January 2006"), nil
			},
		},
		command.Definition{
			Pattern:     "list commands",
			Description: "List every available command",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return formatList("📋 Available commands:", reg.Patterns()), nil
			},
		},
		command.Definition{
			Pattern:     "search commands for {query}",
			Description: "Find commands containing the given letters",
			Safe:        true,
			Handler: func(_ context.Context, args command.Args) (string, error) {
				query := args.Get("query")
				found := reg.Search(query, 10)
				if len(found) == 0 {
					return fmt.Sprintf("🔍 No commands match %q", query), nil
				}
				return formatList(fmt.Sprintf("🔍 Commands matching %q:", query), found), nil
			},
		},
		command.Definition{
			Pattern:     "help",
			Description: "Explain how to use Caelum",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return `💡 Type a command in plain words, e.g. "get current time" or "ping example.com".
Small typos are fine. Try "list commands" or "search commands for file".`, nil
			},
		},
	)
}

func formatList(title string, items []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, item := range items {
		b.WriteString("\n• ")
		b.WriteString(item)
	}
	return b.String()
}
