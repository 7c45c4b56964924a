package framer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// RESPFramer 按 RESP 语法切分响应：
//
//	+OK\r\n  -ERR msg\r\n  :1\r\n  $3\r\nabc\r\n  $-1\r\n  *2\r\n$1\r\na\r\n$1\r\nb\r\n
//
// 不以上述前缀开头的行按单行文本处理，与 LineFramer 保持兼容。
type RESPFramer struct{}

func (RESPFramer) Encode(command string) []byte { return Encode(command) }

func (RESPFramer) Split(buf []byte) (int, error) {
	return respLen(buf, 0)
}

// respLen 返回从 off 开始的一条完整值的长度
func respLen(buf []byte, off int) (int, error) {
	line, ok := readLine(buf, off)
	if !ok {
		return 0, nil
	}
	n := len(line)
	switch buf[off] {
	case '$':
		size, err := parseHeader(line)
		if err != nil {
			return 0, err
		}
		if size < 0 {
			return n, nil
		}
		// 内容 + CRLF
		total := n + int(size) + 2
		if len(buf)-off < total {
			return 0, nil
		}
		return total, nil
	case '*':
		count, err := parseHeader(line)
		if err != nil {
			return 0, err
		}
		total := n
		for i := int64(0); i < count; i++ {
			m, err := respLen(buf, off+total)
			if err != nil || m == 0 {
				return 0, err
			}
			total += m
		}
		return total, nil
	}
	return n, nil
}

// readLine 返回 off 处包含 '\n' 的一整行
func readLine(buf []byte, off int) ([]byte, bool) {
	if off >= len(buf) {
		return nil, false
	}
	i := bytes.IndexByte(buf[off:], '\n')
	if i < 0 {
		return nil, false
	}
	return buf[off : off+i+1], true
}

func parseHeader(line []byte) (int64, error) {
	text := strings.TrimRight(string(line[1:]), "\r\n")
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < -1 {
		return 0, fmt.Errorf("%w: %q", ErrProtocol, strings.TrimRight(string(line), "\r\n"))
	}
	return v, nil
}

func (RESPFramer) Extract(frame []byte) string {
	text, _ := render(frame)
	return strings.TrimRightFunc(text, isSpace)
}

// render 将一条完整值渲染为文本，返回消耗的字节数
func render(buf []byte) (string, int) {
	line, ok := readLine(buf, 0)
	if !ok {
		return string(buf), len(buf)
	}
	n := len(line)
	body := strings.TrimRight(string(line[1:]), "\r\n")
	switch buf[0] {
	case '+', ':':
		return body, n
	case '-':
		return "(error) " + body, n
	case '$':
		size, err := strconv.Atoi(body)
		if err != nil {
			return strings.TrimRight(string(line), "\r\n"), n
		}
		if size < 0 {
			return "(nil)", n
		}
		end := n + size
		if end > len(buf) {
			end = len(buf)
		}
		return string(buf[n:end]), end + 2
	case '*':
		count, err := strconv.Atoi(body)
		if err != nil {
			return strings.TrimRight(string(line), "\r\n"), n
		}
		if count < 0 {
			return "(nil)", n
		}
		items := make([]string, 0, count)
		total := n
		for i := 0; i < count && total < len(buf); i++ {
			item, m := render(buf[total:])
			items = append(items, item)
			total += m
		}
		return strings.Join(items, "\n"), total
	}
	return strings.TrimRight(string(line), "\r\n"), n
}
