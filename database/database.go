// Package database 提供界面各面板使用的数据库操作，每个操作由一条或多条命令组成。
// 失败以 error 返回，不做重试。
package database

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	databaseface "dbconsole/interface/database"
)

const nilReply = "(nil)"

type Database struct {
	executor databaseface.Executor
}

func NewDatabase(executor databaseface.Executor) *Database {
	return &Database{executor: executor}
}

func (d *Database) exec(ctx context.Context, name string, args ...string) (string, error) {
	res, err := d.executor.Execute(ctx, name, args...)
	if err != nil {
		log.WithField("cmd", name).WithError(err).Debug("command failed")
		return "", err
	}
	return res, nil
}

// quote 用双引号包裹值，保证含空白的值作为一个参数
func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `'`) + `"`
}

// splitList 多行响应按行切分，单行响应按空白切分
func splitList(res string) []string {
	res = strings.TrimSpace(res)
	if res == "" || res == nilReply {
		return nil
	}
	var items []string
	if strings.Contains(res, "\n") {
		for _, line := range strings.Split(res, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				items = append(items, line)
			}
		}
		return items
	}
	return strings.Fields(res)
}
