package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Stats 面板展示的服务器统计信息
type Stats struct {
	TotalKeys         int64
	MemoryUsage       string
	Uptime            string
	Connections       int64
	CommandsProcessed int64
	KeyspaceHits      int64
	KeyspaceMisses    int64
}

// Stats 组合 INFO 与 DBSIZE 的结果
func (d *Database) Stats(ctx context.Context) (*Stats, error) {
	info, err := d.exec(ctx, "INFO")
	if err != nil {
		return nil, err
	}
	dbsize, err := d.exec(ctx, "DBSIZE")
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		MemoryUsage: "0MB",
		Uptime:      "0s",
		Connections: 1,
	}
	stats.TotalKeys, _ = strconv.ParseInt(strings.TrimSpace(dbsize), 10, 64)
	parseInfo(info, stats)
	return stats, nil
}

// parseInfo 解析 key:value 字段；line 编码下多行会被折叠为空格分隔，所以按空白切分
func parseInfo(info string, stats *Stats) {
	for _, field := range strings.Fields(info) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		switch key {
		case "used_memory_human":
			stats.MemoryUsage = value
		case "uptime_in_seconds":
			if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
				stats.Uptime = formatUptime(seconds)
			}
		case "connected_clients":
			stats.Connections, _ = strconv.ParseInt(value, 10, 64)
		case "total_commands_processed":
			stats.CommandsProcessed, _ = strconv.ParseInt(value, 10, 64)
		case "keyspace_hits":
			stats.KeyspaceHits, _ = strconv.ParseInt(value, 10, 64)
		case "keyspace_misses":
			stats.KeyspaceMisses, _ = strconv.ParseInt(value, 10, 64)
		}
	}
}

func formatUptime(seconds int64) string {
	if seconds > 3600 {
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
