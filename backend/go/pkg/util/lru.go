package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// entry 存储链表节点中的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time // 零值表示永不过期
}

// LRUCache 是一个支持泛型、带 TTL、线程安全的 LRU 缓存。
type LRUCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	ll       *list.List
	cache    map[K]*list.Element
	lock     sync.Mutex
}

// NewLRUCache 创建一个 LRU 缓存实例。
// capacity: 最大条目数量，必须大于 0。
// ttl: 条目的存活时间，为 0 时永不过期。
func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity 必须大于 0")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		cache:    make(map[K]*list.Element),
	}, nil
}

// Get 根据键获取一个值。过期的条目被惰性移除。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zero V
		return zero, false
	}

	e := element.Value.(*entry[K, V])
	if c.ttl > 0 && time.Now().After(e.expiration) {
		c.removeElement(element)
		var zero V
		return zero, false
	}

	c.ll.MoveToFront(element)
	return e.value, true
}

// Put 添加或更新一个键值对。超出容量时淘汰最久未使用的条目。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	var expiration time.Time
	if c.ttl > 0 {
		expiration = time.Now().Add(c.ttl)
	}

	if element, ok := c.cache[key]; ok {
		e := element.Value.(*entry[K, V])
		e.value = value
		e.expiration = expiration
		c.ll.MoveToFront(element)
		return
	}

	element := c.ll.PushFront(&entry[K, V]{key: key, value: value, expiration: expiration})
	c.cache[key] = element

	if c.ll.Len() > c.capacity {
		if back := c.ll.Back(); back != nil {
			c.removeElement(back)
		}
	}
}

// Remove 从缓存中删除一个键。
func (c *LRUCache[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		c.removeElement(element)
	}
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}

// removeElement 从链表和 map 中移除元素。调用方必须持有锁。
func (c *LRUCache[K, V]) removeElement(element *list.Element) {
	c.ll.Remove(element)
	delete(c.cache, element.Value.(*entry[K, V]).key)
}
