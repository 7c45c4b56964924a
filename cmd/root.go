package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dbconsole/config"
	"dbconsole/lib/logger"
	"dbconsole/resp/client"
)

var (
	configFile     string
	host           string
	port           int
	framing        string
	logLevel       string
	commandTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:               "dbconsole",
	Short:             "A console client for line-protocol key-value databases",
	Long:              "dbconsole connects to a key-value database over TCP and sends text commands, one reply per command.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "dbconsole.conf", "config file, ignored when missing")
	flags.StringVar(&host, "host", config.DefaultHost, "database host")
	flags.IntVar(&port, "port", config.DefaultPort, "database port")
	flags.StringVar(&framing, "framing", "line", "reply framing: line or resp")
	flags.StringVar(&logLevel, "log-level", "info", "log level")
	flags.DurationVar(&commandTimeout, "command-timeout", config.DefaultCommandTimeout, "per-command timeout")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// setup 加载配置文件，命令行显式给出的参数覆盖文件中的值，然后初始化日志
func setup(cmd *cobra.Command, args []string) error {
	props := config.Defaults()
	if fileExists(configFile) {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		props = loaded
	} else if cmd.Flags().Changed("config") {
		return fmt.Errorf("config file %s not found", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		props.Host = host
	}
	if flags.Changed("port") {
		props.Port = port
	}
	if flags.Changed("framing") {
		props.Framing = framing
	}
	if flags.Changed("log-level") {
		props.LogLevel = logLevel
	}
	if flags.Changed("command-timeout") {
		props.CommandTimeout = commandTimeout
	}
	config.Properties = props

	if err := logger.Setup(&logger.Settings{
		Path:       props.LogDir,
		Name:       "dbconsole",
		Ext:        "log",
		TimeFormat: "2006-01-02",
		Level:      props.LogLevel,
	}); err != nil {
		return err
	}
	log.WithField("endpoint", props.Addr()).Debug("config loaded")
	return nil
}

// connect 按全局配置创建 client 并建立连接，调用方负责 Close
func connect(ctx context.Context) (*client.Client, error) {
	c, err := client.MakeClient(config.Properties)
	if err != nil {
		return nil, err
	}
	c.Start()
	if err := c.Connect(ctx, config.Properties.Host, config.Properties.Port); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}
