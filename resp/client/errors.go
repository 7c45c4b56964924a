package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected 没有可用连接且连接尝试失败
	ErrNotConnected = errors.New("not connected to database")
	// ErrCommandTimeout 在限定时间内没有收到完整响应
	ErrCommandTimeout = errors.New("command timeout")
	// ErrConnectionLost 等待响应期间连接出错或被关闭
	ErrConnectionLost = errors.New("connection lost")
	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("client closed")
)

// Kind 命令失败的类别
type Kind int

const (
	NotConnected Kind = iota
	Timeout
	ConnectionLost
	Closed
	Canceled
)

func (k Kind) String() string {
	switch k {
	case NotConnected:
		return "not connected"
	case Timeout:
		return "timeout"
	case ConnectionLost:
		return "connection lost"
	case Closed:
		return "closed"
	case Canceled:
		return "canceled"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// CommandError 命令没有得到响应的原因
type CommandError struct {
	Kind    Kind
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	var msg string
	switch e.Kind {
	case NotConnected:
		msg = "failed to establish database connection"
	case Timeout:
		msg = "command timeout"
	case ConnectionLost:
		msg = "connection lost"
	case Closed:
		msg = "client closed"
	case Canceled:
		msg = "command canceled"
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Command != "" {
		return fmt.Sprintf("%s (command %q)", msg, e.Command)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrNotConnected:
		return e.Kind == NotConnected
	case ErrCommandTimeout:
		return e.Kind == Timeout
	case ErrConnectionLost:
		return e.Kind == ConnectionLost
	case ErrClientClosed:
		return e.Kind == Closed
	}
	return false
}
