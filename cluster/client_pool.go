package cluster

import (
	"context"
	"errors"

	pool "github.com/jolestar/go-commons-pool/v2"

	"dbconsole/config"
	"dbconsole/resp/client"
)

// connectionFactory 为某个节点创建、销毁 client，供对象池使用
type connectionFactory struct {
	props *config.ClientProperties // Host/Port 已指向该节点
}

func (f *connectionFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := client.MakeClient(f.props)
	if err != nil {
		return nil, err
	}
	c.Start()
	return pool.NewPooledObject(c), nil
}

func (f *connectionFactory) DestroyObject(ctx context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*client.Client)
	if !ok {
		return errors.New("type mismatch")
	}
	c.Close()
	return nil
}

// ValidateObject client 会在下一条命令时惰性重连，所以断开的连接也视为可用
func (f *connectionFactory) ValidateObject(ctx context.Context, object *pool.PooledObject) bool {
	_, ok := object.Object.(*client.Client)
	return ok
}

func (f *connectionFactory) ActivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

func (f *connectionFactory) PassivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}
