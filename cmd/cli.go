package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Start an interactive console",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()
		return runREPL(cmd, c)
	},
}

func init() {
	rootCmd.AddCommand(cliCmd)
}

// runREPL 逐行读取命令并打印响应，命令失败不会退出
func runREPL(cmd *cobra.Command, sender commandSender) error {
	out := cmd.OutOrStdout()
	stdin := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintf(out, "Connected to %s\n", sender.Endpoint())

	for {
		fmt.Fprint(out, "> ")
		line, err := stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		command := strings.TrimSpace(line)
		switch {
		case command == "quit" || command == "exit":
			fmt.Fprintln(out, "bye")
			return nil
		case command != "":
			printReply(out, sender, command)
		}
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}
	}
}
