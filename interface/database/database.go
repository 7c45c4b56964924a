package database

import "context"

// Executor 发送一条命令并返回响应文本，*client.Client 实现了该接口
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}
