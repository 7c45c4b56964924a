package dict

// Consumer 遍历时对每个键值对调用，返回 false 停止遍历
type Consumer func(key string, val interface{}) bool

// Dict 开发服务器使用的键空间
type Dict interface {
	Get(key string) (val interface{}, exists bool)
	Len() int
	Put(key string, val interface{}) (result int) // 新增返回 1，覆盖返回 0
	Remove(key string) (result int)
	ForEach(consumer Consumer)
	Keys() []string
	Clear()
}
