package handler

import (
	"strconv"
	"strings"

	"dbconsole/resp/framer"
)

// reply 一条待编码的回复
type reply struct {
	kind  byte // '+' '-' ':' '$' '*'
	text  string
	null  bool
	items []*reply
}

func makeStatusReply(status string) *reply { return &reply{kind: '+', text: status} }

func makeOkReply() *reply { return makeStatusReply("OK") }

func makeErrReply(msg string) *reply { return &reply{kind: '-', text: msg} }

func makeArgNumErrReply(cmd string) *reply {
	return makeErrReply("ERR wrong number of arguments for '" + strings.ToLower(cmd) + "' command")
}

func makeWrongTypeErrReply() *reply {
	return makeErrReply("WRONGTYPE Operation against a key holding the wrong kind of value")
}

func makeIntReply(n int64) *reply { return &reply{kind: ':', text: strconv.FormatInt(n, 10)} }

func makeBulkReply(s string) *reply { return &reply{kind: '$', text: s} }

func makeNullBulkReply() *reply { return &reply{kind: '$', null: true} }

func makeMultiBulkReply(args []string) *reply {
	items := make([]*reply, len(args))
	for i, arg := range args {
		items[i] = makeBulkReply(arg)
	}
	return &reply{kind: '*', items: items}
}

func (r *reply) encode(framing string) []byte {
	if framing == framer.RESPFraming {
		var sb strings.Builder
		r.writeRESP(&sb)
		return []byte(sb.String())
	}
	return []byte(r.line() + framer.CRLF)
}

// line 单行编码：多行内容折叠为空格分隔，数组元素以空格拼接
func (r *reply) line() string {
	switch r.kind {
	case '$':
		if r.null {
			return "(nil)"
		}
		return strings.Join(strings.Fields(r.text), " ")
	case '*':
		parts := make([]string, len(r.items))
		for i, item := range r.items {
			parts[i] = item.line()
		}
		return strings.Join(parts, " ")
	}
	return r.text
}

func (r *reply) writeRESP(sb *strings.Builder) {
	switch r.kind {
	case '$':
		if r.null {
			sb.WriteString("$-1\r\n")
			return
		}
		sb.WriteString("$" + strconv.Itoa(len(r.text)) + framer.CRLF + r.text + framer.CRLF)
	case '*':
		sb.WriteString("*" + strconv.Itoa(len(r.items)) + framer.CRLF)
		for _, item := range r.items {
			item.writeRESP(sb)
		}
	default:
		sb.WriteString(string(r.kind) + r.text + framer.CRLF)
	}
}
