package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"dbconsole/cluster"
	"dbconsole/config"
)

var peers []string

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <command> [args...]",
	Short: "Send one command to every peer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoints := config.Properties.Peers
		if cmd.Flags().Changed("peers") {
			endpoints = peers
		}
		if len(endpoints) == 0 {
			return fmt.Errorf("no peers configured")
		}
		c, err := cluster.MakeCluster(config.Properties, endpoints)
		if err != nil {
			return err
		}
		defer c.Close()

		results := c.Broadcast(cmd.Context(), args[0], args[1:]...)
		nodes := make([]string, 0, len(results))
		for node := range results {
			nodes = append(nodes, node)
		}
		sort.Strings(nodes)

		out := cmd.OutOrStdout()
		failed := 0
		for _, node := range nodes {
			r := results[node]
			if r.Err != nil {
				failed++
				fmt.Fprintf(out, "%s: (error) %v\n", node, r.Err)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", node, strings.ReplaceAll(r.Reply, "\n", " "))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d peers failed", failed, len(nodes))
		}
		return nil
	},
}

func init() {
	broadcastCmd.Flags().StringSliceVar(&peers, "peers", nil, "comma separated host:port list, overrides the config file")
	rootCmd.AddCommand(broadcastCmd)
}
