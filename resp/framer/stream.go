package framer

import (
	"errors"
	"io"
	"runtime/debug"

	"dbconsole/lib/logger"
)

const readChunk = 4096

// Payload 封装一条已切分的响应或读取过程中出现的错误
type Payload struct {
	Data string
	Err  error
}

// ParseStream 在独立协程中从 reader 读取字节并按 f 切分，每条完整响应发送一个 Payload。
// 出现 IO 错误时发送该错误并关闭 channel；协议错误同样是致命的，因为无法再确定边界。
func ParseStream(reader io.Reader, f Framer) <-chan *Payload {
	ch := make(chan *Payload)
	go parse(reader, f, ch)
	return ch
}

func parse(reader io.Reader, f Framer, ch chan<- *Payload) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error(string(debug.Stack()))
			ch <- &Payload{Err: errors.New("framer panic")}
		}
		close(ch)
	}()

	var buf []byte
	chunk := make([]byte, readChunk)
	for {
		// 先把缓冲区里已经完整的响应全部吐出
		for len(buf) > 0 {
			n, err := f.Split(buf)
			if err != nil {
				ch <- &Payload{Err: err}
				return
			}
			if n == 0 {
				break
			}
			ch <- &Payload{Data: f.Extract(buf[:n])}
			buf = buf[n:]
		}

		n, err := reader.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			continue
		}
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				err = io.ErrUnexpectedEOF
			}
			ch <- &Payload{Err: err}
			return
		}
	}
}
