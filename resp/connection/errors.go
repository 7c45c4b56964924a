package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectRefused 建立连接时操作系统层面的失败
	ErrConnectRefused = errors.New("connection refused")
	// ErrConnectTimeout 在限定时间内没有完成连接
	ErrConnectTimeout = errors.New("connection timeout")
	// ErrReconnectBackoff 处于重连退避窗口内，本次没有拨号
	ErrReconnectBackoff = errors.New("reconnect backoff in effect")
	// ErrDisconnected 连接被主动断开
	ErrDisconnected = errors.New("disconnected")
	// ErrConnectionClosed 连接已经关闭，无法再派发命令
	ErrConnectionClosed = errors.New("connection closed")
)

// ConnectKind 区分连接失败的原因
type ConnectKind int

const (
	ConnectRefused ConnectKind = iota
	ConnectTimeout
)

// ConnectError 描述一次失败的连接尝试
type ConnectError struct {
	Kind     ConnectKind
	Endpoint Endpoint
	Err      error
}

func (e *ConnectError) Error() string {
	reason := "connection refused"
	if e.Kind == ConnectTimeout {
		reason = "connection timeout"
	}
	if e.Err == nil {
		return fmt.Sprintf("failed to establish database connection to %s: %s", e.Endpoint, reason)
	}
	return fmt.Sprintf("failed to establish database connection to %s: %s: %v", e.Endpoint, reason, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

func (e *ConnectError) Is(target error) bool {
	switch target {
	case ErrConnectRefused:
		return e.Kind == ConnectRefused
	case ErrConnectTimeout:
		return e.Kind == ConnectTimeout
	}
	return false
}
