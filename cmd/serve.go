package cmd

import (
	"github.com/spf13/cobra"

	"dbconsole/config"
	"dbconsole/resp/handler"
	"dbconsole/tcp"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the in-memory development server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tcp.ListenAndServeWithSignal(&tcp.Config{Address: serveAddr}, handler.MakeHandler(config.Properties.Framing))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:6379", "listen address")
	rootCmd.AddCommand(serveCmd)
}
