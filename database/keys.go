package database

import (
	"context"
	"strconv"
	"strings"
)

// KeyValue 一个键的类型、值与剩余生存时间
type KeyValue struct {
	Key   string
	Type  string
	Value string
	TTL   int64
}

// Keys 返回匹配 pattern 的键，pattern 为空时使用 *
func (d *Database) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	res, err := d.exec(ctx, "KEYS", pattern)
	if err != nil {
		return nil, err
	}
	return splitList(res), nil
}

// KeyValue 先查类型，再按类型读取值，最后读取 TTL
func (d *Database) KeyValue(ctx context.Context, key string) (*KeyValue, error) {
	typ, err := d.exec(ctx, "TYPE", key)
	if err != nil {
		return nil, err
	}
	typ = strings.ToLower(strings.TrimSpace(typ))

	var value string
	switch typ {
	case "list":
		value, err = d.exec(ctx, "LRANGE", key, "0", "-1")
	case "set":
		value, err = d.exec(ctx, "SMEMBERS", key)
	case "hash":
		value, err = d.exec(ctx, "HGETALL", key)
	case "zset":
		value, err = d.exec(ctx, "ZRANGE", key, "0", "-1", "WITHSCORES")
	default:
		value, err = d.exec(ctx, "GET", key)
	}
	if err != nil {
		return nil, err
	}

	ttlRes, err := d.exec(ctx, "TTL", key)
	if err != nil {
		return nil, err
	}
	ttl, convErr := strconv.ParseInt(strings.TrimSpace(ttlRes), 10, 64)
	if convErr != nil {
		ttl = -1
	}
	return &KeyValue{Key: key, Type: typ, Value: value, TTL: ttl}, nil
}

// SetKeyValue 按类型写入：string 用 SET，list 用 RPUSH，set 用 SADD，hash 的 value 为 "field value" 对
func (d *Database) SetKeyValue(ctx context.Context, key, value, typ string) (string, error) {
	switch strings.ToLower(typ) {
	case "list":
		return d.exec(ctx, "RPUSH", key, quote(value))
	case "set":
		return d.exec(ctx, "SADD", key, quote(value))
	case "hash":
		return d.exec(ctx, "HSET", key, value)
	default:
		return d.exec(ctx, "SET", key, quote(value))
	}
}

// DeleteKey 删除键，返回服务器的响应
func (d *Database) DeleteKey(ctx context.Context, key string) (string, error) {
	return d.exec(ctx, "DEL", key)
}
