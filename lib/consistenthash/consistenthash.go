// Package consistenthash 一致性哈希环，cluster 用它把键路由到固定节点
package consistenthash

import (
	"hash/crc32"
	"sort"
	"strconv"
)

// HashFunc 把数据映射为环上的位置
type HashFunc func(data []byte) uint32

// defaultReplicas 每个物理节点的虚拟节点个数
const defaultReplicas = 16

// NodeMap 存储所有节点与其在环上的位置，构造后只读，可并发使用
type NodeMap struct {
	hashFunc    HashFunc
	replicas    int
	nodeHashs   []int          // 已排序
	nodehashMap map[int]string // 位置 -> 节点
}

func NewNodeMap(fn HashFunc) *NodeMap {
	m := &NodeMap{
		hashFunc:    fn,
		replicas:    defaultReplicas,
		nodehashMap: make(map[int]string),
	}
	if m.hashFunc == nil {
		m.hashFunc = crc32.ChecksumIEEE
	}
	return m
}

func (m *NodeMap) IsEmpty() bool {
	return len(m.nodeHashs) == 0
}

// AddNode 把节点及其虚拟节点加入环
func (m *NodeMap) AddNode(keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		for i := 0; i < m.replicas; i++ {
			hash := int(m.hashFunc([]byte(strconv.Itoa(i) + key)))
			m.nodeHashs = append(m.nodeHashs, hash)
			m.nodehashMap[hash] = key
		}
	}
	sort.Ints(m.nodeHashs)
}

// PickNode 顺时针找到第一个不小于 key 哈希值的节点
func (m *NodeMap) PickNode(key string) string {
	if m.IsEmpty() {
		return ""
	}
	hash := int(m.hashFunc([]byte(key)))
	idx := sort.SearchInts(m.nodeHashs, hash)
	if idx == len(m.nodeHashs) {
		idx = 0
	}
	return m.nodehashMap[m.nodeHashs[idx]]
}
