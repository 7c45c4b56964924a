package connection

import (
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dbconsole/lib/sync/wait"
	"dbconsole/resp/framer"
)

const readerExitTimeout = 10 * time.Second

// Connection 表示一条存活的 socket 连接，由 Manager 独占持有。
// 连接上唯一的读协程按顺序把切分好的响应交给 waiting 队列的队首。
type Connection struct {
	id       uint64
	endpoint Endpoint
	conn     net.Conn
	framer   framer.Framer
	log      *logrus.Entry

	mu      sync.Mutex
	waiting []*waiter // 已发送、等待响应的命令，按发送顺序排列
	stale   int       // waiting 中已被放弃的命令数
	closed  bool
	err     error
	onClose func(*Connection, error)

	done    chan struct{}
	reading wait.Wait
}

// waiter 一条已经写到 socket 上的命令
type waiter struct {
	seq       uint64
	reply     chan *framer.Payload
	abandoned bool
}

func newConnection(id uint64, endpoint Endpoint, conn net.Conn, f framer.Framer, onClose func(*Connection, error)) *Connection {
	c := &Connection{
		id:       id,
		endpoint: endpoint,
		conn:     conn,
		framer:   f,
		onClose:  onClose,
		done:     make(chan struct{}),
		log: logrus.WithFields(logrus.Fields{
			"endpoint": endpoint.Addr(),
			"conn":     id,
		}),
	}
	c.reading.Add(1)
	go c.handleRead()
	return c
}

func (c *Connection) ID() uint64 { return c.id }

func (c *Connection) Endpoint() Endpoint { return c.endpoint }

func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Done 在连接关闭后被关闭
func (c *Connection) Done() <-chan struct{} { return c.done }

// Err 返回导致连接关闭的原因，连接存活时为 nil
func (c *Connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stale 返回已放弃但仍欠一条响应的命令数
func (c *Connection) Stale() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Dispatch 登记命令并写出，返回的 channel 上会收到该命令的响应或连接错误
func (c *Connection) Dispatch(seq uint64, command string) (<-chan *framer.Payload, error) {
	w := &waiter{
		seq:   seq,
		reply: make(chan *framer.Payload, 1),
	}
	c.mu.Lock()
	if c.closed {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	// 先登记再写，保证响应到达时一定能找到对应的 waiter
	c.waiting = append(c.waiting, w)
	c.mu.Unlock()

	c.log.WithField("seq", seq).Debug("send command")
	if err := framer.WriteCommand(c.conn, command); err != nil {
		c.fail(err)
		return nil, err
	}
	return w.reply, nil
}

// Abandon 标记 seq 对应的命令已被放弃，它迟到的响应将被丢弃而不会交给后续命令
func (c *Connection) Abandon(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.waiting {
		if w.seq == seq && !w.abandoned {
			w.abandoned = true
			c.stale++
			return
		}
	}
}

func (c *Connection) handleRead() {
	defer c.reading.Done()
	defer func() {
		if err := recover(); err != nil {
			c.log.Error(string(debug.Stack()))
		}
	}()

	for payload := range framer.ParseStream(c.conn, c.framer) {
		if payload.Err != nil {
			c.fail(payload.Err)
			return
		}
		c.finishRequest(payload)
	}
	c.fail(io.EOF)
}

// finishRequest 把响应交给队首的命令
func (c *Connection) finishRequest(payload *framer.Payload) {
	c.mu.Lock()
	if len(c.waiting) == 0 {
		c.mu.Unlock()
		c.log.Warn("discard unsolicited reply")
		return
	}
	w := c.waiting[0]
	c.waiting[0] = nil
	c.waiting = c.waiting[1:]
	if w.abandoned {
		c.stale--
	}
	c.mu.Unlock()

	if w.abandoned {
		c.log.WithField("seq", w.seq).Warn("discard late reply")
		return
	}
	w.reply <- payload
}

// fail 关闭连接：先通知 Manager，再让所有在途命令以 err 结束
func (c *Connection) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	waiting := c.waiting
	c.waiting = nil
	c.stale = 0
	onClose := c.onClose
	c.onClose = nil
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.Close()
	if onClose != nil {
		onClose(c, err)
	}
	for _, w := range waiting {
		if !w.abandoned {
			w.reply <- &framer.Payload{Err: err}
		}
	}
}

// close 主动关闭：摘掉关闭回调后关闭 socket，并等待读协程退出
func (c *Connection) close() {
	c.mu.Lock()
	c.onClose = nil
	c.mu.Unlock()

	c.fail(ErrDisconnected)
	if c.reading.WaitWithTimeout(readerExitTimeout) {
		c.log.Warn("reader did not exit after close")
	}
}
