// Package handler 实现本地开发服务器的命令处理：按行读取文本命令，
// 以 line 或 resp 编码回复。它只用于开发和测试，不是数据库引擎。
package handler

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"dbconsole/datastruct/dict"
	"dbconsole/resp/framer"
)

// Handler 开发服务器的连接处理器
type Handler struct {
	activeConn sync.Map
	data       dict.Dict
	framing    string
	started    time.Time

	mu        sync.Mutex // 复合写操作加锁
	closing   atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once

	accepted  atomic.Int64
	processed atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
}

// MakeHandler 创建处理器，framing 为 line 或 resp
func MakeHandler(framing string) *Handler {
	if framing == "" {
		framing = framer.LineFraming
	}
	return &Handler{
		data:    dict.MakeSyncDict(),
		framing: strings.ToLower(framing),
		started: time.Now(),
		closed:  make(chan struct{}),
	}
}

// Accepted 返回累计接受的连接数
func (h *Handler) Accepted() int64 {
	return h.accepted.Load()
}

// DropConnections 关闭所有客户端连接但继续接受新连接
func (h *Handler) DropConnections() {
	h.activeConn.Range(func(key, value interface{}) bool {
		_ = key.(net.Conn).Close()
		return true
	})
}

func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	if h.closing.Load() {
		_ = conn.Close()
		return
	}
	h.accepted.Add(1)
	h.activeConn.Store(conn, struct{}{})
	defer func() {
		h.activeConn.Delete(conn)
		_ = conn.Close()
	}()
	// Close 可能在登记前已经遍历过 activeConn
	if h.closing.Load() {
		return
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Debug("connection read failed")
			}
			return
		}
		args := splitArgs(strings.TrimRight(line, "\r\n"))
		if len(args) == 0 {
			continue
		}
		result, quit := h.exec(args)
		if _, err := conn.Write(result.encode(h.framing)); err != nil {
			return
		}
		if quit {
			return
		}
	}
}

// Close 关闭所有连接，可重复调用
func (h *Handler) Close() error {
	h.closeOnce.Do(func() {
		log.Debug("handler shutting down")
		h.closing.Store(true)
		close(h.closed)
	})
	h.DropConnections()
	return nil
}

// splitArgs 按空白切分，双引号内的空白保留
func splitArgs(line string) []string {
	var args []string
	var current strings.Builder
	inQuote, hasToken := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasToken = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasToken {
				args = append(args, current.String())
				current.Reset()
				hasToken = false
			}
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}
	if hasToken {
		args = append(args, current.String())
	}
	return args
}
