// Package framer 定义与数据库服务器之间的线路编码：
// 发送时如何编码一条命令，接收时如何从字节流中切出一条完整的响应。
package framer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/bytebufferpool"
)

const (
	// LineFraming 以第一个 '\n' 作为响应边界
	LineFraming = "line"
	// RESPFraming 理解 $len / *n 等多行回复
	RESPFraming = "resp"
)

var (
	// CRLF 命令行结束符
	CRLF = "\r\n"

	// ErrProtocol 表示收到的字节流无法按当前编码解析
	ErrProtocol = errors.New("protocol error")
)

// Framer 负责编码命令并识别一条响应在字节流中的结束位置
type Framer interface {
	// Encode 将命令文本编码为线路格式
	Encode(command string) []byte
	// Split 返回 buf 中第一条完整响应的字节长度，返回 0 表示还需要更多数据
	Split(buf []byte) (int, error)
	// Extract 将一条完整响应转换为调用方看到的文本
	Extract(frame []byte) string
}

// New 根据名称创建 Framer，空字符串等同于 line
func New(name string) (Framer, error) {
	switch strings.ToLower(name) {
	case "", LineFraming:
		return LineFramer{}, nil
	case RESPFraming:
		return RESPFramer{}, nil
	}
	return nil, fmt.Errorf("unknown framing %q", name)
}

// Encode 在命令后追加 CRLF，不做任何转义
func Encode(command string) []byte {
	return append([]byte(command), CRLF...)
}

// WriteCommand 使用池化缓冲区编码命令并一次性写出
func WriteCommand(w interface{ Write([]byte) (int, error) }, command string) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString(command)
	_, _ = buf.WriteString(CRLF)
	_, err := w.Write(buf.B)
	return err
}

// IsComplete 缓冲区中出现换行符即认为响应完整
func IsComplete(buf []byte) bool {
	return bytes.IndexByte(buf, '\n') >= 0
}

// Extract 去掉末尾空白后作为响应内容
func Extract(buf []byte) string {
	return strings.TrimRightFunc(string(buf), isSpace)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\v' || r == '\f'
}

// LineFramer 以第一个换行符为边界，不理解多行回复
type LineFramer struct{}

func (LineFramer) Encode(command string) []byte { return Encode(command) }

func (LineFramer) Split(buf []byte) (int, error) {
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return 0, nil
	}
	return i + 1, nil
}

func (LineFramer) Extract(frame []byte) string { return Extract(frame) }
