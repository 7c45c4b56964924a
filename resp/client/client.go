// Package client 在一条物理连接上为多个调用方提供请求/响应调用。
// 协议本身不携带请求 ID，响应只能按发送顺序对应请求，
// 所以命令经由 FIFO 队列逐条发送：前一条结束（成功、超时或连接丢失）后才发送下一条。
package client

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"dbconsole/config"
	"dbconsole/resp/connection"
	"dbconsole/resp/framer"
)

const chanSize = 256 // 待发送队列的缓冲大小

// Client 命令通道：把一条命令变成一条对应的响应，必要时按需建立连接
type Client struct {
	props   *config.ClientProperties
	manager *connection.Manager

	pendingReqs chan *request // 等待发送的请求，按到达顺序排列
	seq         uint64

	endpointMu sync.Mutex
	endpoint   connection.Endpoint

	startOnce sync.Once
	closeOnce sync.Once
	closing   chan struct{}
	finished  chan struct{} // 分发协程退出后关闭
}

// request 一次逻辑请求
type request struct {
	ctx     context.Context
	command string
	timeout time.Duration
	reply   string
	err     error
	done    chan struct{}
}

func (r *request) finish(reply string, err error) {
	r.reply = reply
	r.err = err
	close(r.done)
}

// ClientOption 配置 Client
type ClientOption func(*clientOptions)

type clientOptions struct {
	managerOpts []connection.Option
}

// WithManagerOptions 透传给 connection.NewManager 的选项
func WithManagerOptions(opts ...connection.Option) ClientOption {
	return func(o *clientOptions) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

// MakeClient 根据配置创建客户端，props 为 nil 时使用默认配置。此时不会建立连接。
func MakeClient(props *config.ClientProperties, opts ...ClientOption) (*Client, error) {
	if props == nil {
		props = config.Defaults()
	}
	f, err := framer.New(props.Framing)
	if err != nil {
		return nil, err
	}
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	managerOpts := append([]connection.Option{
		connection.WithReconnectBackoff(props.ReconnectMinDelay, props.ReconnectMaxDelay),
	}, o.managerOpts...)

	return &Client{
		props:       props,
		manager:     connection.NewManager(f, managerOpts...),
		pendingReqs: make(chan *request, chanSize),
		endpoint:    connection.Endpoint{Host: props.Host, Port: props.Port},
		closing:     make(chan struct{}),
		finished:    make(chan struct{}),
	}, nil
}

// Start 启动分发协程，可重复调用
func (client *Client) Start() {
	client.startOnce.Do(func() {
		go client.handleWrite()
	})
}

// Close 停止分发协程，未发送的请求以 ErrClientClosed 结束，并断开连接
func (client *Client) Close() {
	client.closeOnce.Do(func() {
		close(client.closing)
		// 从未启动过时没有协程负责关闭 finished
		client.startOnce.Do(func() { close(client.finished) })
		<-client.finished
		client.manager.Disconnect()
	})
}

// Connect 显式连接到 host:port，并将其作为之后按需重连的地址
func (client *Client) Connect(ctx context.Context, host string, port int) error {
	endpoint := connection.Endpoint{Host: host, Port: port}
	client.endpointMu.Lock()
	client.endpoint = endpoint
	client.endpointMu.Unlock()

	_, err := client.manager.Connect(ctx, endpoint, client.props.ConnectTimeout)
	return err
}

// Disconnect 断开当前连接，总是成功
func (client *Client) Disconnect() {
	client.manager.Disconnect()
}

func (client *Client) IsConnected() bool {
	return client.manager.IsConnected()
}

func (client *Client) State() connection.State {
	return client.manager.State()
}

// Endpoint 返回按需重连时使用的地址
func (client *Client) Endpoint() connection.Endpoint {
	client.endpointMu.Lock()
	defer client.endpointMu.Unlock()
	return client.endpoint
}

// Execute 将命令名与参数以单个空格拼接后发送
func (client *Client) Execute(ctx context.Context, name string, args ...string) (string, error) {
	if len(args) == 0 {
		return client.Send(ctx, name)
	}
	return client.Send(ctx, name+" "+strings.Join(args, " "))
}

// Send 使用默认超时发送命令
func (client *Client) Send(ctx context.Context, command string) (string, error) {
	return client.SendTimeout(ctx, command, client.props.CommandTimeout)
}

// SendTimeout 将命令排入队列并等待响应，timeout 从命令写出时开始计算
func (client *Client) SendTimeout(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-client.closing:
		return "", &CommandError{Kind: Closed, Command: commandName(command)}
	default:
	}
	client.Start()

	req := &request{
		ctx:     ctx,
		command: command,
		timeout: timeout,
		done:    make(chan struct{}),
	}
	select {
	case client.pendingReqs <- req:
	case <-ctx.Done():
		return "", &CommandError{Kind: Canceled, Command: commandName(command), Err: ctx.Err()}
	case <-client.closing:
		return "", &CommandError{Kind: Closed, Command: commandName(command)}
	}

	select {
	case <-req.done:
		return req.reply, req.err
	case <-ctx.Done():
		// 分发协程会看到 ctx 结束并放弃该请求
		return "", &CommandError{Kind: Canceled, Command: commandName(command), Err: ctx.Err()}
	case <-client.finished:
		select {
		case <-req.done:
			return req.reply, req.err
		default:
		}
		return "", &CommandError{Kind: Closed, Command: commandName(command)}
	}
}

// handleWrite 逐条处理待发送请求
func (client *Client) handleWrite() {
	defer close(client.finished)
	for {
		select {
		case req := <-client.pendingReqs:
			client.doRequest(req)
		case <-client.closing:
			client.drain()
			return
		}
	}
}

// drain 关闭时让队列中剩余的请求以 Closed 结束
func (client *Client) drain() {
	for {
		select {
		case req := <-client.pendingReqs:
			req.finish("", &CommandError{Kind: Closed, Command: commandName(req.command)})
		default:
			return
		}
	}
}

// doRequest 发送一条请求并等待它结束，期间不会处理其他请求
func (client *Client) doRequest(req *request) {
	name := commandName(req.command)
	defer func() {
		if err := recover(); err != nil {
			logrus.Errorf("panic while executing %s: %v\n%s", name, err, debug.Stack())
			select {
			case <-req.done:
			default:
				req.finish("", &CommandError{Kind: ConnectionLost, Command: name})
			}
		}
	}()

	// 排队期间调用方已经放弃
	if err := req.ctx.Err(); err != nil {
		req.finish("", &CommandError{Kind: Canceled, Command: name, Err: err})
		return
	}

	conn, err := client.manager.Ensure(req.ctx, client.Endpoint(), client.props.ConnectTimeout)
	if err != nil {
		req.finish("", &CommandError{Kind: NotConnected, Command: name, Err: err})
		return
	}

	seq := atomic.AddUint64(&client.seq, 1)
	log := logrus.WithFields(logrus.Fields{"conn": conn.ID(), "seq": seq, "cmd": name})
	replyCh, err := conn.Dispatch(seq, req.command)
	if err != nil {
		req.finish("", &CommandError{Kind: ConnectionLost, Command: name, Err: err})
		return
	}

	timeout := req.timeout
	if timeout <= 0 {
		timeout = config.DefaultCommandTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-replyCh:
		if payload.Err != nil {
			log.WithError(payload.Err).Warn("connection lost while awaiting reply")
			req.finish("", &CommandError{Kind: ConnectionLost, Command: name, Err: payload.Err})
			return
		}
		req.finish(payload.Data, nil)
	case <-timer.C:
		conn.Abandon(seq)
		log.Warnf("no reply within %s", timeout)
		req.finish("", &CommandError{Kind: Timeout, Command: name})
		client.checkStale(conn)
	case <-req.ctx.Done():
		conn.Abandon(seq)
		req.finish("", &CommandError{Kind: Canceled, Command: name, Err: req.ctx.Err()})
		client.checkStale(conn)
	case <-client.closing:
		conn.Abandon(seq)
		req.finish("", &CommandError{Kind: Closed, Command: name})
	}
}

// checkStale 欠下的迟到响应过多时放弃整条连接，下一条命令会重新连接
func (client *Client) checkStale(conn *connection.Connection) {
	limit := client.props.StaleLimit
	if limit <= 0 {
		return
	}
	if stale := conn.Stale(); stale > limit {
		logrus.WithField("conn", conn.ID()).Warnf("%d replies still owed to abandoned commands, dropping connection", stale)
		client.manager.Drop(conn)
	}
}

// commandName 错误和日志中只记录命令名，避免泄露参数（例如 AUTH 的密码）
func commandName(command string) string {
	command = strings.TrimSpace(command)
	if i := strings.IndexAny(command, " \t"); i >= 0 {
		return strings.ToUpper(command[:i])
	}
	return strings.ToUpper(command)
}
