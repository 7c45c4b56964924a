package handler

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	require.Equal(t, []string{"SET", "greeting", "hello world"}, splitArgs(`SET greeting "hello world"`))
	require.Equal(t, []string{"GET", "k"}, splitArgs("  GET\tk  "))
	require.Equal(t, []string{"SET", "k", ""}, splitArgs(`SET k ""`))
	require.Empty(t, splitArgs("   "))
}

func TestReplyEncoding(t *testing.T) {
	require.Equal(t, "OK\r\n", string(makeOkReply().encode("line")))
	require.Equal(t, "+OK\r\n", string(makeOkReply().encode("resp")))
	require.Equal(t, "(nil)\r\n", string(makeNullBulkReply().encode("line")))
	require.Equal(t, "$-1\r\n", string(makeNullBulkReply().encode("resp")))
	require.Equal(t, "a b\r\n", string(makeMultiBulkReply([]string{"a", "b"}).encode("line")))
	require.Equal(t, "*2\r\n$1\r\na\r\n$1\r\nb\r\n", string(makeMultiBulkReply([]string{"a", "b"}).encode("resp")))
	require.Equal(t, "x:1 y:2\r\n", string(makeBulkReply("x:1\r\ny:2\r\n").encode("line")))
	require.Equal(t, ":-2\r\n", string(makeIntReply(-2).encode("resp")))
}

func exec(h *Handler, line string) string {
	r, _ := h.exec(splitArgs(line))
	return r.line()
}

func TestCommands(t *testing.T) {
	h := MakeHandler("line")

	require.Equal(t, "PONG", exec(h, "PING"))
	require.Equal(t, "OK", exec(h, "SET k v"))
	require.Equal(t, "v", exec(h, "GET k"))
	require.Equal(t, "(nil)", exec(h, "GET missing"))
	require.Equal(t, "string", exec(h, "TYPE k"))
	require.Equal(t, "none", exec(h, "TYPE missing"))
	require.Equal(t, "-1", exec(h, "TTL k"))
	require.Equal(t, "-2", exec(h, "TTL missing"))

	require.Equal(t, "2", exec(h, "RPUSH l a b"))
	require.Equal(t, "a b", exec(h, "LRANGE l 0 -1"))
	require.Equal(t, "b", exec(h, "LRANGE l -1 -1"))
	require.Equal(t, "1", exec(h, "SADD s x"))
	require.Equal(t, "x", exec(h, "SMEMBERS s"))
	require.Equal(t, "1", exec(h, "HSET hh f v"))
	require.Equal(t, "f v", exec(h, "HGETALL hh"))
	require.Contains(t, exec(h, "GET l"), "WRONGTYPE")

	require.Equal(t, "hh k l s", exec(h, "KEYS *"))
	require.Equal(t, "k", exec(h, "KEYS k*"))
	require.Equal(t, "4", exec(h, "DBSIZE"))
	require.Equal(t, "2", exec(h, "EXISTS k l missing"))
	require.Equal(t, "1", exec(h, "DEL k"))
	require.Contains(t, exec(h, "INFO"), "keyspace_hits:")

	require.Contains(t, exec(h, "INFO"), "connected_clients:0")

	require.Equal(t, "2", exec(h, "ZADD z 2 b 1.5 a"))
	require.Equal(t, "0", exec(h, "ZADD z 3 a"))
	require.Equal(t, "b a", exec(h, "ZRANGE z 0 -1"))
	require.Equal(t, "b 2 a 3", exec(h, "ZRANGE z 0 -1 WITHSCORES"))
	require.Equal(t, "3", exec(h, "ZSCORE z a"))
	require.Equal(t, "(nil)", exec(h, "ZSCORE z missing"))
	require.Equal(t, "2", exec(h, "ZCARD z"))
	require.Equal(t, "zset", exec(h, "TYPE z"))
	require.Equal(t, "ERR value is not a valid float", exec(h, "ZADD z x m"))
	require.Equal(t, "1", exec(h, "DEL z"))

	require.Equal(t, "ERR unknown command 'NOPE'", exec(h, "nope"))
	require.Equal(t, "ERR wrong number of arguments for 'get' command", exec(h, "GET"))
	require.Equal(t, "OK", exec(h, "FLUSHALL"))
	require.Equal(t, "0", exec(h, "DBSIZE"))
}

func TestHandleConnection(t *testing.T) {
	h := MakeHandler("resp")
	server, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(context.Background(), server)
	}()

	reader := bufio.NewReader(client)
	_, err := client.Write([]byte("SET k \"a b\"\r\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)

	_, err = client.Write([]byte("QUIT\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)
	<-done
	require.EqualValues(t, 1, h.Accepted())
	require.NoError(t, h.Close())
}
