package cmd

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dbconsole/resp/handler"
	"dbconsole/tcp"
)

func startServer(t *testing.T) (*tcp.Server, []string) {
	t.Helper()
	srv, err := tcp.Start(&tcp.Config{Address: "127.0.0.1:0"}, handler.MakeHandler("line"))
	require.NoError(t, err)
	target := []string{"--host", "127.0.0.1", "--port", strconv.Itoa(srv.Addr().Port), "--log-level", "warn"}
	return srv, target
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExecAndDatabaseCommands(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, target := startServer(t)
	defer srv.Close()

	out, err := run(t, "", append([]string{"exec"}, append(target, "SET", "greeting", "hello")...)...)
	require.NoError(t, err)
	require.Equal(t, "OK\n", out)

	out, err = run(t, "", append([]string{"set", "--type", "list"}, append(target, "jobs", "first job")...)...)
	require.NoError(t, err)
	require.Equal(t, "1\n", out)

	out, err = run(t, "", append([]string{"keys"}, target...)...)
	require.NoError(t, err)
	require.Equal(t, "greeting\njobs\n", out)

	out, err = run(t, "", append([]string{"get"}, append(target, "jobs")...)...)
	require.NoError(t, err)
	require.Equal(t, "type: list\nttl: -1\nfirst job\n", out)

	out, err = run(t, "", append([]string{"del"}, append(target, "greeting")...)...)
	require.NoError(t, err)
	require.Equal(t, "1\n", out)

	out, err = run(t, "", append([]string{"stats"}, target...)...)
	require.NoError(t, err)
	require.Contains(t, out, "keys: 1\n")
}

func TestCLI(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, target := startServer(t)
	defer srv.Close()

	out, err := run(t, "PING\n\nGET missing\nquit\nPING\n", append([]string{"cli"}, target...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Connected to 127.0.0.1:")
	require.Contains(t, out, "> PONG\n")
	require.Contains(t, out, "> (nil)\n")
	require.True(t, strings.HasSuffix(out, "bye\n"))
	require.Equal(t, 1, strings.Count(out, "PONG"))
}

func TestBroadcastCommand(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv1, _ := startServer(t)
	defer srv1.Close()
	srv2, _ := startServer(t)
	defer srv2.Close()

	peerList := srv1.Addr().String() + "," + srv2.Addr().String()
	out, err := run(t, "", "broadcast", "--log-level", "warn", "--peers", peerList, "SET", "k", "v")
	require.NoError(t, err)
	require.Contains(t, out, srv1.Addr().String()+": OK\n")
	require.Contains(t, out, srv2.Addr().String()+": OK\n")
}

func TestConnectFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := run(t, "", "exec", "--host", "127.0.0.1", "--port", "1", "--log-level", "warn", "PING")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to establish database connection")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "", "exec", "--config", "does-not-exist.conf", "PING")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
