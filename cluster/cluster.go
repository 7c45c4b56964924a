// Package cluster 把命令转发到多个数据库服务器。
// 每个节点维护一个 client 对象池，按键路由时使用一致性哈希选择节点。
package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	pool "github.com/jolestar/go-commons-pool/v2"
	log "github.com/sirupsen/logrus"

	"dbconsole/config"
	"dbconsole/lib/consistenthash"
	"dbconsole/resp/client"
)

// ErrUnknownNode 目标节点不在集群中
var ErrUnknownNode = errors.New("unknown cluster node")

// defaultPoolSize 每个节点最多同时借出的 client 数
const defaultPoolSize = 4

// Result 单个节点的执行结果
type Result struct {
	Reply string
	Err   error
}

type Cluster struct {
	nodes      []string
	peerPicker *consistenthash.NodeMap
	peerPools  map[string]*pool.ObjectPool
}

// MakeCluster 为每个 host:port 节点创建对象池，props 提供超时、分帧等公共配置
func MakeCluster(props *config.ClientProperties, endpoints []string) (*Cluster, error) {
	if props == nil {
		props = config.Defaults()
	}
	if len(endpoints) == 0 {
		return nil, errors.New("cluster needs at least one endpoint")
	}
	cluster := &Cluster{
		peerPicker: consistenthash.NewNodeMap(nil),
		peerPools:  make(map[string]*pool.ObjectPool, len(endpoints)),
	}
	ctx := context.Background()
	for _, endpoint := range endpoints {
		if _, ok := cluster.peerPools[endpoint]; ok {
			continue
		}
		host, portStr, err := net.SplitHostPort(endpoint)
		if err != nil {
			cluster.Close()
			return nil, fmt.Errorf("bad cluster endpoint %q: %w", endpoint, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			cluster.Close()
			return nil, fmt.Errorf("bad cluster endpoint %q: %w", endpoint, err)
		}
		nodeProps := *props
		nodeProps.Host = host
		nodeProps.Port = port

		poolConfig := pool.NewDefaultPoolConfig()
		poolConfig.MaxTotal = defaultPoolSize
		poolConfig.MaxIdle = defaultPoolSize
		poolConfig.TestOnBorrow = true
		cluster.peerPools[endpoint] = pool.NewObjectPool(ctx, &connectionFactory{props: &nodeProps}, poolConfig)
		cluster.nodes = append(cluster.nodes, endpoint)
	}
	cluster.peerPicker.AddNode(cluster.nodes...)
	return cluster, nil
}

// Nodes 返回节点列表，顺序与创建时一致
func (cluster *Cluster) Nodes() []string {
	return append([]string(nil), cluster.nodes...)
}

// PickNode 返回负责 key 的节点
func (cluster *Cluster) PickNode(key string) string {
	return cluster.peerPicker.PickNode(key)
}

func (cluster *Cluster) getPeerClient(ctx context.Context, peer string) (*client.Client, error) {
	p, ok := cluster.peerPools[peer]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, peer)
	}
	raw, err := p.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := raw.(*client.Client)
	if !ok {
		return nil, errors.New("connection factory make wrong type")
	}
	return c, nil
}

func (cluster *Cluster) returnPeerClient(peer string, peerClient *client.Client) error {
	p, ok := cluster.peerPools[peer]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, peer)
	}
	return p.ReturnObject(context.Background(), peerClient)
}

// Relay 借出目标节点的 client 执行命令，完成后归还
func (cluster *Cluster) Relay(ctx context.Context, peer string, name string, args ...string) (string, error) {
	peerClient, err := cluster.getPeerClient(ctx, peer)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := cluster.returnPeerClient(peer, peerClient); err != nil {
			log.WithField("peer", peer).WithError(err).Warn("return client to pool failed")
		}
	}()
	return peerClient.Execute(ctx, name, args...)
}

// Route 把针对单个键的命令转发到负责该键的节点
func (cluster *Cluster) Route(ctx context.Context, key string, name string, args ...string) (string, error) {
	return cluster.Relay(ctx, cluster.PickNode(key), name, args...)
}

// Broadcast 依次在所有节点执行命令，单个节点失败不影响其他节点
func (cluster *Cluster) Broadcast(ctx context.Context, name string, args ...string) map[string]Result {
	result := make(map[string]Result, len(cluster.nodes))
	for _, node := range cluster.nodes {
		reply, err := cluster.Relay(ctx, node, name, args...)
		if err != nil {
			log.WithField("peer", node).WithError(err).Debug("broadcast failed on node")
		}
		result[node] = Result{Reply: reply, Err: err}
	}
	return result
}

// Close 关闭所有对象池，空闲的 client 随之关闭
func (cluster *Cluster) Close() {
	ctx := context.Background()
	for _, p := range cluster.peerPools {
		p.Close(ctx)
	}
}
