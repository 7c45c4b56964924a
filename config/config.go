package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ClientProperties 客户端可配置项，文件中每行为 "key value"
type ClientProperties struct {
	Host              string        `cfg:"host"`
	Port              int           `cfg:"port"`
	ConnectTimeout    time.Duration `cfg:"connect-timeout"`
	CommandTimeout    time.Duration `cfg:"command-timeout"`
	Framing           string        `cfg:"framing"`
	StaleLimit        int           `cfg:"stale-limit"`
	ReconnectMinDelay time.Duration `cfg:"reconnect-min-delay"`
	ReconnectMaxDelay time.Duration `cfg:"reconnect-max-delay"`
	LogLevel          string        `cfg:"log-level"`
	LogDir            string        `cfg:"log-dir"`
	Peers             []string      `cfg:"peers"`
}

const (
	DefaultHost           = "localhost"
	DefaultPort           = 6379
	DefaultConnectTimeout = 10 * time.Second
	DefaultCommandTimeout = 5 * time.Second
	DefaultStaleLimit     = 8
)

var Properties = Defaults()

// Defaults 返回一份新的默认配置
func Defaults() *ClientProperties {
	return &ClientProperties{
		Host:              DefaultHost,
		Port:              DefaultPort,
		ConnectTimeout:    DefaultConnectTimeout,
		CommandTimeout:    DefaultCommandTimeout,
		Framing:           "line",
		StaleLimit:        DefaultStaleLimit,
		ReconnectMaxDelay: 30 * time.Second,
		LogLevel:          "info",
	}
}

// Addr 返回 host:port
func (p *ClientProperties) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// SetupConfig 读取配置文件并覆盖全局 Properties
func SetupConfig(configFile string) error {
	props, err := Load(configFile)
	if err != nil {
		return err
	}
	Properties = props
	return nil
}

// Load 在默认值基础上解析配置文件
func Load(configFile string) (*ClientProperties, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %v", err)
	}
	defer file.Close()

	props := Defaults()
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		// 忽略空行和注释行
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		if err := props.set(strings.ToLower(parts[0]), parts[1:]); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	return props, nil
}

func (p *ClientProperties) set(key string, values []string) error {
	value := values[0]
	var err error
	switch key {
	case "host":
		p.Host = value
	case "port":
		p.Port, err = strconv.Atoi(value)
	case "connect-timeout":
		p.ConnectTimeout, err = time.ParseDuration(value)
	case "command-timeout":
		p.CommandTimeout, err = time.ParseDuration(value)
	case "framing":
		p.Framing = value
	case "stale-limit":
		p.StaleLimit, err = strconv.Atoi(value)
	case "reconnect-min-delay":
		p.ReconnectMinDelay, err = time.ParseDuration(value)
	case "reconnect-max-delay":
		p.ReconnectMaxDelay, err = time.ParseDuration(value)
	case "log-level":
		p.LogLevel = value
	case "log-dir":
		p.LogDir = value
	case "peers":
		p.Peers = append([]string(nil), values...)
	default:
		// 其他字段忽略
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
