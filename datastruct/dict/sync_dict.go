package dict

import "sync"

// SyncDict 使用 sync.Map 实现的线程安全字典
type SyncDict struct {
	m sync.Map
}

func MakeSyncDict() *SyncDict {
	return &SyncDict{}
}

func (dict *SyncDict) Get(key string) (val interface{}, exists bool) {
	return dict.m.Load(key)
}

func (dict *SyncDict) Len() int {
	length := 0
	dict.m.Range(func(k, v interface{}) bool {
		length++
		return true
	})
	return length
}

func (dict *SyncDict) Put(key string, val interface{}) (result int) {
	if _, existed := dict.m.Swap(key, val); existed {
		return 0
	}
	return 1
}

func (dict *SyncDict) Remove(key string) (result int) {
	if _, existed := dict.m.LoadAndDelete(key); existed {
		return 1
	}
	return 0
}

func (dict *SyncDict) ForEach(consumer Consumer) {
	dict.m.Range(func(key, value interface{}) bool {
		return consumer(key.(string), value)
	})
}

func (dict *SyncDict) Keys() []string {
	result := make([]string, 0)
	dict.m.Range(func(key, value interface{}) bool {
		result = append(result, key.(string))
		return true
	})
	return result
}

// Clear 逐个删除，不能直接替换内部的 sync.Map
func (dict *SyncDict) Clear() {
	dict.m.Range(func(key, value interface{}) bool {
		dict.m.Delete(key)
		return true
	})
}
