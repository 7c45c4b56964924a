package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dbconsole/resp/connection"
)

// commandSender cli 与 exec 需要的 client 能力
type commandSender interface {
	Send(ctx context.Context, command string) (string, error)
	Endpoint() connection.Endpoint
}

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Send one command and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()
		res, err := c.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func printReply(out io.Writer, sender commandSender, command string) {
	res, err := sender.Send(context.Background(), command)
	if err != nil {
		fmt.Fprintln(out, "(error)", err.Error())
		return
	}
	fmt.Fprintln(out, res)
}
