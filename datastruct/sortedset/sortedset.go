// Package sortedset 跳表实现的有序集合，按 (score, member) 升序排列
package sortedset

import (
	"math/rand"
	"time"
)

const (
	maxLevel    = 16 // 跳表的最大层数
	promoteRate = 0.25
)

// Element 成员和分数
type Element struct {
	Member string
	Score  float64
}

type node struct {
	Element
	forward []*node
}

// SortedSet 非并发安全，由调用方加锁
type SortedSet struct {
	dict   map[string]float64
	header *node
	level  int
	length int64
	rnd    *rand.Rand
}

func Make() *SortedSet {
	return &SortedSet{
		dict:   make(map[string]float64),
		header: &node{forward: make([]*node, maxLevel)},
		level:  1,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SortedSet) randomLevel() int {
	level := 1
	for level < maxLevel && s.rnd.Float64() < promoteRate {
		level++
	}
	return level
}

func less(score float64, member string, n *node) bool {
	return n.Score < score || (n.Score == score && n.Member < member)
}

// findUpdate 返回每一层上 (score, member) 之前的最后一个节点
func (s *SortedSet) findUpdate(member string, score float64) []*node {
	update := make([]*node, maxLevel)
	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && less(score, member, x.forward[i]) {
			x = x.forward[i]
		}
		update[i] = x
	}
	return update
}

func (s *SortedSet) insert(member string, score float64) {
	update := s.findUpdate(member, score)
	level := s.randomLevel()
	if level > s.level {
		for i := s.level; i < level; i++ {
			update[i] = s.header
		}
		s.level = level
	}
	n := &node{Element: Element{Member: member, Score: score}, forward: make([]*node, level)}
	for i := 0; i < level; i++ {
		n.forward[i] = update[i].forward[i]
		update[i].forward[i] = n
	}
	s.length++
}

func (s *SortedSet) delete(member string, score float64) {
	update := s.findUpdate(member, score)
	target := update[0].forward[0]
	if target == nil || target.Member != member {
		return
	}
	for i := 0; i < s.level; i++ {
		if update[i].forward[i] == target {
			update[i].forward[i] = target.forward[i]
		}
	}
	for s.level > 1 && s.header.forward[s.level-1] == nil {
		s.level--
	}
	s.length--
}

// Add 添加成员或更新分数，返回成员是否为新增
func (s *SortedSet) Add(member string, score float64) bool {
	old, existed := s.dict[member]
	if existed {
		if old == score {
			return false
		}
		s.delete(member, old)
	}
	s.dict[member] = score
	s.insert(member, score)
	return !existed
}

func (s *SortedSet) Remove(member string) bool {
	score, ok := s.dict[member]
	if !ok {
		return false
	}
	delete(s.dict, member)
	s.delete(member, score)
	return true
}

func (s *SortedSet) Score(member string) (float64, bool) {
	score, ok := s.dict[member]
	return score, ok
}

func (s *SortedSet) Len() int64 {
	return s.length
}

// Range 按排名 [start, stop] 遍历，负数下标从末尾计数，fn 返回 false 时停止
func (s *SortedSet) Range(start, stop int64, fn func(element Element) bool) {
	if start < 0 {
		start += s.length
	}
	if stop < 0 {
		stop += s.length
	}
	if start < 0 {
		start = 0
	}
	if stop >= s.length {
		stop = s.length - 1
	}
	if start > stop {
		return
	}
	x := s.header.forward[0]
	for i := int64(0); x != nil && i <= stop; i++ {
		if i >= start && !fn(x.Element) {
			return
		}
		x = x.forward[0]
	}
}
