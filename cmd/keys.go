package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dbconsole/database"
)

var setType string

var keysCmd = &cobra.Command{
	Use:   "keys [pattern]",
	Short: "List keys matching a pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}
		return withDatabase(cmd, func(db *database.Database) error {
			keys, err := db.Keys(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show the type, value and ttl of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.Database) error {
			kv, err := db.KeyValue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "type: %s\n", kv.Type)
			fmt.Fprintf(out, "ttl: %d\n", kv.TTL)
			fmt.Fprintln(out, kv.Value)
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a value, using --type to pick the command",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.Database) error {
			res, err := db.SetKeyValue(cmd.Context(), args[0], args[1], setType)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.Database) error {
			res, err := db.DeleteKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.Database) error {
			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keys: %d\n", stats.TotalKeys)
			fmt.Fprintf(out, "memory: %s\n", stats.MemoryUsage)
			fmt.Fprintf(out, "uptime: %s\n", stats.Uptime)
			fmt.Fprintf(out, "connections: %d\n", stats.Connections)
			fmt.Fprintf(out, "commands: %d\n", stats.CommandsProcessed)
			fmt.Fprintf(out, "hits: %d\n", stats.KeyspaceHits)
			fmt.Fprintf(out, "misses: %d\n", stats.KeyspaceMisses)
			return nil
		})
	},
}

func init() {
	setCmd.Flags().StringVar(&setType, "type", "string", "value type: string, list, set or hash")
	rootCmd.AddCommand(keysCmd, getCmd, setCmd, delCmd, statsCmd)
}

func withDatabase(cmd *cobra.Command, fn func(db *database.Database) error) error {
	c, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(database.NewDatabase(c))
}
