package cache

import (
	"container/list"
	"rtw-settlements/internal/locate"
	"sync"
	"time"
)

// 文档注释：本地 LRU 缓存（map_tag + 名称为键）
// 背景：热点聚落在短周期内重复查询，使用进程内缓存降低 Redis 与数据库往返；TTL 可调。
// 约束：仅用于 /settlement；键由调用方用 SettlementKey 构造。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
}

type kv struct {
	k   string
	v   locate.Settlement
	exp time.Time
}

func NewLRU(capacity int, ttlSec int) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, ttl: time.Duration(ttlSec) * time.Second, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *LRU) Get(k string) (locate.Settlement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if time.Now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return locate.Settlement{}, false
}

func (c *LRU) Set(k string, v locate.Settlement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		e.Value = kv{k: k, v: v, exp: time.Now().Add(c.ttl)}
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(kv{k: k, v: v, exp: time.Now().Add(c.ttl)})
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		it := back.Value.(kv)
		delete(c.dict, it.k)
		c.lst.Remove(back)
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
