package handler

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"dbconsole/datastruct/sortedset"
)

const (
	typeString = "string"
	typeList   = "list"
	typeSet    = "set"
	typeHash   = "hash"
	typeZSet   = "zset"
)

// entity 键对应的值
type entity struct {
	kind string
	str  string
	list []string
	set  map[string]struct{}
	hash map[string]string
	zset *sortedset.SortedSet
}

type execFunc func(h *Handler, args []string) *reply

type command struct {
	executor execFunc
	arity    int // 含命令名；负数表示至少 -arity 个
}

var cmdTable = map[string]*command{}

func registerCommand(name string, executor execFunc, arity int) {
	cmdTable[strings.ToLower(name)] = &command{executor: executor, arity: arity}
}

func init() {
	registerCommand("ping", execPing, -1)
	registerCommand("echo", execEcho, 2)
	registerCommand("auth", execAuth, -2)
	registerCommand("set", execSet, 3)
	registerCommand("get", execGet, 2)
	registerCommand("del", execDel, -2)
	registerCommand("exists", execExists, -2)
	registerCommand("keys", execKeys, 2)
	registerCommand("type", execType, 2)
	registerCommand("ttl", execTTL, 2)
	registerCommand("dbsize", execDBSize, 1)
	registerCommand("info", execInfo, -1)
	registerCommand("flushall", execFlushAll, 1)
	registerCommand("rpush", execRPush, -3)
	registerCommand("lrange", execLRange, 4)
	registerCommand("sadd", execSAdd, -3)
	registerCommand("smembers", execSMembers, 2)
	registerCommand("hset", execHSet, -4)
	registerCommand("hgetall", execHGetAll, 2)
	registerCommand("zadd", execZAdd, -4)
	registerCommand("zrange", execZRange, -4)
	registerCommand("zscore", execZScore, 3)
	registerCommand("zcard", execZCard, 2)
	registerCommand("sleep", execSleep, 2)
}

// exec 执行一条命令，第二个返回值表示回复后关闭连接
func (h *Handler) exec(args []string) (*reply, bool) {
	h.processed.Add(1)
	name := strings.ToLower(args[0])
	if name == "quit" {
		return makeOkReply(), true
	}
	cmd, ok := cmdTable[name]
	if !ok {
		return makeErrReply("ERR unknown command '" + strings.ToUpper(args[0]) + "'"), false
	}
	if !validArity(cmd.arity, len(args)) {
		return makeArgNumErrReply(name), false
	}
	return cmd.executor(h, args[1:]), false
}

func validArity(arity, n int) bool {
	if arity >= 0 {
		return n == arity
	}
	return n >= -arity
}

func (h *Handler) getEntity(key string) (*entity, bool) {
	raw, ok := h.data.Get(key)
	if !ok {
		h.misses.Add(1)
		return nil, false
	}
	h.hits.Add(1)
	return raw.(*entity), true
}

func execPing(h *Handler, args []string) *reply {
	if len(args) > 0 {
		return makeBulkReply(args[0])
	}
	return makeStatusReply("PONG")
}

func execEcho(h *Handler, args []string) *reply {
	return makeBulkReply(args[0])
}

func execAuth(h *Handler, args []string) *reply {
	return makeErrReply("ERR Client sent AUTH, but no password is set")
}

func execSet(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data.Put(args[0], &entity{kind: typeString, str: args[1]})
	return makeOkReply()
}

func execGet(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeNullBulkReply()
	}
	if e.kind != typeString {
		return makeWrongTypeErrReply()
	}
	return makeBulkReply(e.str)
}

func execDel(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	deleted := 0
	for _, key := range args {
		deleted += h.data.Remove(key)
	}
	return makeIntReply(int64(deleted))
}

func execExists(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, key := range args {
		if _, ok := h.data.Get(key); ok {
			count++
		}
	}
	return makeIntReply(int64(count))
}

func execKeys(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	pattern := args[0]
	var keys []string
	for _, key := range h.data.Keys() {
		if ok, err := path.Match(pattern, key); err == nil && ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return makeMultiBulkReply(keys)
}

func execType(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	raw, ok := h.data.Get(args[0])
	if !ok {
		return makeStatusReply("none")
	}
	return makeStatusReply(raw.(*entity).kind)
}

func execTTL(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.data.Get(args[0]); !ok {
		return makeIntReply(-2)
	}
	return makeIntReply(-1)
}

func execDBSize(h *Handler, args []string) *reply {
	return makeIntReply(int64(h.data.Len()))
}

func execInfo(h *Handler, args []string) *reply {
	uptime := int64(time.Since(h.started).Seconds())
	var sb strings.Builder
	sb.WriteString("# Server\r\n")
	sb.WriteString("redis_version:7.0.0-compatible\r\n")
	sb.WriteString(fmt.Sprintf("uptime_in_seconds:%d\r\n", uptime))
	clients := 0
	h.activeConn.Range(func(key, value interface{}) bool {
		clients++
		return true
	})
	sb.WriteString("# Clients\r\n")
	sb.WriteString(fmt.Sprintf("connected_clients:%d\r\n", clients))
	sb.WriteString("# Memory\r\n")
	sb.WriteString("used_memory_human:0.00M\r\n")
	sb.WriteString("# Stats\r\n")
	sb.WriteString(fmt.Sprintf("total_connections_received:%d\r\n", h.accepted.Load()))
	sb.WriteString(fmt.Sprintf("total_commands_processed:%d\r\n", h.processed.Load()))
	sb.WriteString(fmt.Sprintf("keyspace_hits:%d\r\n", h.hits.Load()))
	sb.WriteString(fmt.Sprintf("keyspace_misses:%d\r\n", h.misses.Load()))
	sb.WriteString("# Keyspace\r\n")
	sb.WriteString(fmt.Sprintf("db0:keys=%d,expires=0,avg_ttl=0\r\n", h.data.Len()))
	return makeBulkReply(sb.String())
}

func execFlushAll(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data.Clear()
	return makeOkReply()
}

func execRPush(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		e = &entity{kind: typeList}
		h.data.Put(args[0], e)
	} else if e.kind != typeList {
		return makeWrongTypeErrReply()
	}
	e.list = append(e.list, args[1:]...)
	return makeIntReply(int64(len(e.list)))
}

func execLRange(h *Handler, args []string) *reply {
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return makeErrReply("ERR value is not an integer or out of range")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeMultiBulkReply(nil)
	}
	if e.kind != typeList {
		return makeWrongTypeErrReply()
	}
	size := len(e.list)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if start > stop {
		return makeMultiBulkReply(nil)
	}
	return makeMultiBulkReply(append([]string(nil), e.list[start:stop+1]...))
}

func execSAdd(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		e = &entity{kind: typeSet, set: make(map[string]struct{})}
		h.data.Put(args[0], e)
	} else if e.kind != typeSet {
		return makeWrongTypeErrReply()
	}
	added := 0
	for _, member := range args[1:] {
		if _, exists := e.set[member]; !exists {
			e.set[member] = struct{}{}
			added++
		}
	}
	return makeIntReply(int64(added))
}

func execSMembers(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeMultiBulkReply(nil)
	}
	if e.kind != typeSet {
		return makeWrongTypeErrReply()
	}
	members := make([]string, 0, len(e.set))
	for member := range e.set {
		members = append(members, member)
	}
	sort.Strings(members)
	return makeMultiBulkReply(members)
}

func execHSet(h *Handler, args []string) *reply {
	if len(args[1:])%2 != 0 {
		return makeArgNumErrReply("hset")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		e = &entity{kind: typeHash, hash: make(map[string]string)}
		h.data.Put(args[0], e)
	} else if e.kind != typeHash {
		return makeWrongTypeErrReply()
	}
	added := 0
	for i := 1; i < len(args); i += 2 {
		if _, exists := e.hash[args[i]]; !exists {
			added++
		}
		e.hash[args[i]] = args[i+1]
	}
	return makeIntReply(int64(added))
}

func execHGetAll(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeMultiBulkReply(nil)
	}
	if e.kind != typeHash {
		return makeWrongTypeErrReply()
	}
	fields := make([]string, 0, len(e.hash))
	for field := range e.hash {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	result := make([]string, 0, 2*len(fields))
	for _, field := range fields {
		result = append(result, field, e.hash[field])
	}
	return makeMultiBulkReply(result)
}

func execZAdd(h *Handler, args []string) *reply {
	if len(args[1:])%2 != 0 {
		return makeErrReply("ERR syntax error")
	}
	scores := make([]float64, 0, len(args)/2)
	for i := 1; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return makeErrReply("ERR value is not a valid float")
		}
		scores = append(scores, score)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		e = &entity{kind: typeZSet, zset: sortedset.Make()}
		h.data.Put(args[0], e)
	} else if e.kind != typeZSet {
		return makeWrongTypeErrReply()
	}
	added := 0
	for i, score := range scores {
		if e.zset.Add(args[2+2*i], score) {
			added++
		}
	}
	return makeIntReply(int64(added))
}

func execZRange(h *Handler, args []string) *reply {
	withScores := false
	if len(args) == 4 {
		if !strings.EqualFold(args[3], "withscores") {
			return makeErrReply("ERR syntax error")
		}
		withScores = true
	} else if len(args) > 4 {
		return makeErrReply("ERR syntax error")
	}
	start, err1 := strconv.ParseInt(args[1], 10, 64)
	stop, err2 := strconv.ParseInt(args[2], 10, 64)
	if err1 != nil || err2 != nil {
		return makeErrReply("ERR value is not an integer or out of range")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeMultiBulkReply(nil)
	}
	if e.kind != typeZSet {
		return makeWrongTypeErrReply()
	}
	var result []string
	e.zset.Range(start, stop, func(element sortedset.Element) bool {
		result = append(result, element.Member)
		if withScores {
			result = append(result, formatScore(element.Score))
		}
		return true
	})
	return makeMultiBulkReply(result)
}

func execZScore(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeNullBulkReply()
	}
	if e.kind != typeZSet {
		return makeWrongTypeErrReply()
	}
	score, ok := e.zset.Score(args[1])
	if !ok {
		return makeNullBulkReply()
	}
	return makeBulkReply(formatScore(score))
}

func execZCard(h *Handler, args []string) *reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.getEntity(args[0])
	if !ok {
		return makeIntReply(0)
	}
	if e.kind != typeZSet {
		return makeWrongTypeErrReply()
	}
	return makeIntReply(e.zset.Len())
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// execSleep 延迟 ms 毫秒后回复，用于模拟慢命令
func execSleep(h *Handler, args []string) *reply {
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		return makeErrReply("ERR value is not an integer or out of range")
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-h.closed:
	}
	return makeOkReply()
}
