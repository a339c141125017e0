package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caelumsys/caelum/config"
	"github.com/caelumsys/caelum/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve commands over HTTP and websocket",
	Long: `Start an HTTP server.

  POST /commands   run a command, JSON {"text": "..."} or a form field
  GET  /commands   list registered commands
  GET  /events     websocket, one command per text frame

Each client is rate limited by server.rate and server.burst.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(e.Dispatcher(), e.Registry(),
			server.WithRate(cfg.Server.Rate, cfg.Server.Burst),
		)
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", config.Defaults().Server.Addr, "address to listen on")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
