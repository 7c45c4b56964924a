package framer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineFramerRoundTrip(t *testing.T) {
	for _, cmd := range []string{"PING", "SET k v", `SET greeting "hello world"`, "", "INFO   "} {
		encoded := Encode(cmd)
		require.True(t, bytes.HasSuffix(encoded, []byte("\r\n")))
		require.True(t, IsComplete(encoded))
		require.Equal(t, Extract([]byte(cmd)), Extract(encoded))
	}
	require.Equal(t, "SET k v", Extract(Encode("SET k v")))
}

func TestLineFramerBoundary(t *testing.T) {
	var f LineFramer
	require.False(t, IsComplete([]byte("PON")))

	n, err := f.Split([]byte("PON"))
	require.NoError(t, err)
	require.Zero(t, n)

	buf := []byte("PONG\r\nOK\r\n")
	n, err = f.Split(buf)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, "PONG", f.Extract(buf[:n]))
}

func TestRESPFramerSplit(t *testing.T) {
	var f RESPFramer
	cases := []struct {
		name  string
		input string
		n     int
		text  string
	}{
		{"status", "+OK\r\n", 5, "OK"},
		{"error", "-ERR unknown command 'FOO'\r\n", 28, "(error) ERR unknown command 'FOO'"},
		{"integer", ":42\r\n", 5, "42"},
		{"bulk", "$5\r\nhello\r\n", 11, "hello"},
		{"bulk with newline", "$10\r\nhello\r\nyou\r\n", 17, "hello\r\nyou"},
		{"nil", "$-1\r\n", 5, "(nil)"},
		{"empty bulk", "$0\r\n\r\n", 6, ""},
		{"array", "*2\r\n$1\r\na\r\n$1\r\nb\r\n", 18, "a\nb"},
		{"nested", "*2\r\n*1\r\n:1\r\n+x\r\n", 16, "1\nx"},
		{"empty array", "*0\r\n", 4, ""},
		{"plain", "PONG\r\n", 6, "PONG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := []byte(tc.input + "+NEXT\r\n")
			n, err := f.Split(buf)
			require.NoError(t, err)
			require.Equal(t, tc.n, n)
			require.Equal(t, tc.text, f.Extract(buf[:n]))

			// 任何前缀都不完整
			for i := 0; i < len(tc.input); i++ {
				n, err := f.Split([]byte(tc.input[:i]))
				require.NoError(t, err)
				require.Zero(t, n, "prefix %q", tc.input[:i])
			}
		})
	}
}

func TestRESPFramerProtocolError(t *testing.T) {
	var f RESPFramer
	_, err := f.Split([]byte("$abc\r\n"))
	require.ErrorIs(t, err, ErrProtocol)
	_, err = f.Split([]byte("*-5\r\n"))
	require.ErrorIs(t, err, ErrProtocol)
}

func TestNew(t *testing.T) {
	f, err := New("")
	require.NoError(t, err)
	require.IsType(t, LineFramer{}, f)

	f, err = New("RESP")
	require.NoError(t, err)
	require.IsType(t, RESPFramer{}, f)

	_, err = New("json")
	require.Error(t, err)
}

func TestWriteCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommand(&buf, "GET k"))
	require.Equal(t, "GET k\r\n", buf.String())
}

// chunkReader 每次只返回一个字节，模拟任意切分的 TCP 流
type chunkReader struct {
	data []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestParseStream(t *testing.T) {
	ch := ParseStream(&chunkReader{data: []byte("PONG\r\nOK\r\nv\r\n")}, LineFramer{})

	var got []string
	var last error
	for payload := range ch {
		if payload.Err != nil {
			last = payload.Err
			continue
		}
		got = append(got, payload.Data)
	}
	require.Equal(t, []string{"PONG", "OK", "v"}, got)
	require.ErrorIs(t, last, io.EOF)
}

func TestParseStreamTruncated(t *testing.T) {
	ch := ParseStream(bytes.NewReader([]byte("$5\r\nhel")), RESPFramer{})
	payload := <-ch
	require.ErrorIs(t, payload.Err, io.ErrUnexpectedEOF)
	_, ok := <-ch
	require.False(t, ok)
}

func TestParseStreamProtocolError(t *testing.T) {
	ch := ParseStream(bytes.NewReader([]byte("*x\r\n")), RESPFramer{})
	payload := <-ch
	require.ErrorIs(t, payload.Err, ErrProtocol)
	_, ok := <-ch
	require.False(t, ok)
}
