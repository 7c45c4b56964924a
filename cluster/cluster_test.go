package cluster

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dbconsole/config"
	"dbconsole/resp/client"
	"dbconsole/resp/handler"
	"dbconsole/tcp"
)

func startNode(t *testing.T) (string, *tcp.Server) {
	t.Helper()
	srv, err := tcp.Start(&tcp.Config{Address: "127.0.0.1:0"}, handler.MakeHandler("line"))
	require.NoError(t, err)
	return srv.Addr().String(), srv
}

func testProps() *config.ClientProperties {
	props := config.Defaults()
	props.ConnectTimeout = time.Second
	props.CommandTimeout = time.Second
	return props
}

func TestRelayAndBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr1, srv1 := startNode(t)
	defer srv1.Close()
	addr2, srv2 := startNode(t)
	defer srv2.Close()

	cluster, err := MakeCluster(testProps(), []string{addr1, addr2, addr1})
	require.NoError(t, err)
	defer cluster.Close()
	require.Equal(t, []string{addr1, addr2}, cluster.Nodes())

	ctx := context.Background()
	res, err := cluster.Relay(ctx, addr1, "SET", "k", "one")
	require.NoError(t, err)
	require.Equal(t, "OK", res)

	res, err = cluster.Relay(ctx, addr2, "GET", "k")
	require.NoError(t, err)
	require.Equal(t, "(nil)", res)

	results := cluster.Broadcast(ctx, "SET", "k", "all")
	require.Len(t, results, 2)
	for node, r := range results {
		require.NoError(t, r.Err, node)
		require.Equal(t, "OK", r.Reply)
	}

	results = cluster.Broadcast(ctx, "DBSIZE")
	require.Equal(t, "1", results[addr1].Reply)
	require.Equal(t, "1", results[addr2].Reply)
}

func TestRouteUsesOwningNode(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr1, srv1 := startNode(t)
	defer srv1.Close()
	addr2, srv2 := startNode(t)
	defer srv2.Close()

	cluster, err := MakeCluster(testProps(), []string{addr1, addr2})
	require.NoError(t, err)
	defer cluster.Close()

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key:%d", i)
		_, err := cluster.Route(ctx, key, "SET", key, "v")
		require.NoError(t, err)
	}
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key:%d", i)
		res, err := cluster.Relay(ctx, cluster.PickNode(key), "GET", key)
		require.NoError(t, err)
		require.Equal(t, "v", res)
	}
	results := cluster.Broadcast(ctx, "DBSIZE")
	require.Equal(t, 20, mustAtoi(t, results[addr1].Reply)+mustAtoi(t, results[addr2].Reply))
}

func TestBroadcastPartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr, srv := startNode(t)
	defer srv.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	down := ln.Addr().String()
	require.NoError(t, ln.Close())

	cluster, err := MakeCluster(testProps(), []string{addr, down})
	require.NoError(t, err)
	defer cluster.Close()

	results := cluster.Broadcast(context.Background(), "PING")
	require.NoError(t, results[addr].Err)
	require.Equal(t, "PONG", results[addr].Reply)
	require.ErrorIs(t, results[down].Err, client.ErrNotConnected)
}

func TestUnknownNodeAndBadEndpoint(t *testing.T) {
	defer goleak.VerifyNone(t)

	cluster, err := MakeCluster(testProps(), []string{"127.0.0.1:1"})
	require.NoError(t, err)
	_, err = cluster.Relay(context.Background(), "10.0.0.1:6379", "PING")
	require.ErrorIs(t, err, ErrUnknownNode)
	cluster.Close()

	_, err = MakeCluster(testProps(), []string{"no-port"})
	require.Error(t, err)
	_, err = MakeCluster(testProps(), nil)
	require.Error(t, err)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	require.NoError(t, err)
	return n
}
