package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"

	"dbconsole/resp/framer"
)

// DialFunc 与 net.Dialer.DialContext 签名一致，便于测试替换
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Manager 负责 socket 的生命周期：连接、健康状态、断开与按需重连。
// 任意时刻最多持有一个 Connection。
type Manager struct {
	framer framer.Framer
	dial   DialFunc

	connectMu sync.Mutex // 串行化连接尝试

	mu    sync.Mutex
	conn  *Connection
	state State

	nextID uint64

	gate *reconnectGate
}

// Option 配置 Manager
type Option func(*Manager)

// WithDialer 替换默认的 TCP 拨号
func WithDialer(dial DialFunc) Option {
	return func(m *Manager) { m.dial = dial }
}

// WithReconnectBackoff 在按需重连失败后启用退避窗口，min 为 0 时不启用
func WithReconnectBackoff(min, max time.Duration) Option {
	return func(m *Manager) {
		if min <= 0 {
			m.gate = nil
			return
		}
		if max < min {
			max = min
		}
		m.gate = &reconnectGate{b: &backoff.Backoff{Min: min, Max: max, Factor: 2, Jitter: true}}
	}
}

// NewManager 创建 Manager，f 为 nil 时使用 LineFramer
func NewManager(f framer.Framer, opts ...Option) *Manager {
	if f == nil {
		f = framer.LineFramer{}
	}
	var d net.Dialer
	m := &Manager{
		framer: f,
		dial:   d.DialContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect 建立新连接；已有连接会先被彻底关闭
func (m *Manager) Connect(ctx context.Context, endpoint Endpoint, timeout time.Duration) (*Connection, error) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	conn, err := m.connect(ctx, endpoint, timeout)
	if m.gate != nil {
		m.gate.record(err)
	}
	return conn, err
}

// Ensure 返回当前连接，没有连接时按需建立一条（惰性重连）
func (m *Manager) Ensure(ctx context.Context, endpoint Endpoint, timeout time.Duration) (*Connection, error) {
	if conn := m.Current(); conn != nil {
		return conn, nil
	}

	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	// 等锁期间可能已经有人连上
	if conn := m.Current(); conn != nil {
		return conn, nil
	}
	if m.gate != nil {
		if err := m.gate.check(endpoint); err != nil {
			return nil, err
		}
	}
	logrus.WithField("endpoint", endpoint.Addr()).Info("no connection, attempting to reconnect")
	conn, err := m.connect(ctx, endpoint, timeout)
	if m.gate != nil {
		m.gate.record(err)
	}
	return conn, err
}

func (m *Manager) connect(ctx context.Context, endpoint Endpoint, timeout time.Duration) (*Connection, error) {
	m.teardown(nil)
	m.setState(Connecting)

	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log := logrus.WithField("endpoint", endpoint.Addr())
	nc, err := m.dial(dialCtx, "tcp", endpoint.Addr())
	if err != nil {
		m.setState(Disconnected)
		cerr := classify(dialCtx, endpoint, err)
		log.WithError(err).Warn("database connection failed")
		return nil, cerr
	}

	id := atomic.AddUint64(&m.nextID, 1)
	conn := newConnection(id, endpoint, nc, m.framer, m.handleClose)

	m.mu.Lock()
	m.conn = conn
	m.state = Connected
	m.mu.Unlock()

	log.WithField("conn", id).Info("connected to database server")
	return conn, nil
}

func classify(ctx context.Context, endpoint Endpoint, err error) error {
	kind := ConnectRefused
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ConnectTimeout
	}
	return &ConnectError{Kind: kind, Endpoint: endpoint, Err: err}
}

// Disconnect 关闭当前连接，已断开时什么也不做
func (m *Manager) Disconnect() {
	m.teardown(nil)
}

// Drop 仅当 conn 仍是当前连接时才关闭它
func (m *Manager) Drop(conn *Connection) {
	m.teardown(conn)
}

func (m *Manager) teardown(only *Connection) {
	m.mu.Lock()
	conn := m.conn
	if conn == nil || (only != nil && conn != only) {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = Disconnected
	m.mu.Unlock()

	// 不持锁关闭，避免与读协程的关闭回调互相等待
	conn.close()
	conn.log.Info("disconnected from database server")
}

// handleClose 由连接的读协程在 socket 出错或被对端关闭时调用
func (m *Manager) handleClose(conn *Connection, err error) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = Disconnected
	m.mu.Unlock()
	conn.log.WithError(err).Info("database connection closed")
}

// Current 返回当前连接，未连接时为 nil
func (m *Manager) Current() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && m.state == Connected
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// reconnectGate 按需重连失败后，在退避窗口内直接返回上一次的错误而不再拨号
type reconnectGate struct {
	b       *backoff.Backoff
	until   time.Time
	lastErr *ConnectError
}

func (g *reconnectGate) check(endpoint Endpoint) error {
	if g.lastErr == nil || !time.Now().Before(g.until) {
		return nil
	}
	logrus.WithField("endpoint", endpoint.Addr()).Warnf("skip reconnect until %s", g.until.Format(time.RFC3339Nano))
	return &ConnectError{
		Kind:     g.lastErr.Kind,
		Endpoint: endpoint,
		Err:      fmt.Errorf("%w: %v", ErrReconnectBackoff, g.lastErr.Err),
	}
}

func (g *reconnectGate) record(err error) {
	if err == nil {
		g.b.Reset()
		g.lastErr = nil
		return
	}
	var cerr *ConnectError
	if errors.As(err, &cerr) {
		g.lastErr = cerr
		g.until = time.Now().Add(g.b.Duration())
	}
}
