package worker

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeCache 进程内缓存，记录按模式失效的行为
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache(keys ...string) *fakeCache {
	c := &fakeCache{data: make(map[string]string)}
	for _, k := range keys {
		c.data[k] = "x"
	}
	return c
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error { return nil }
func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) InvalidatePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *fakeCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	return out
}

func TestProcessTaskInvalidatesScopedKeys(t *testing.T) {
	// 缓存键格式为 order:<id>:<owner>，同一订单的顾客视角与游客视角都要失效
	fc := newFakeCache(
		"order:o1:u1",
		"order:o1:guest:g@example.com",
		"order:o2:u1",
	)
	pool := NewWorkerPool(fc, 1, 10)

	err := pool.processTask(OrderTask{Kind: TaskOrderStatusChanged, OrderID: "o1", OrderNo: "N1"})

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"order:o2:u1"}, fc.keys())
}

func TestProcessTaskWithoutCache(t *testing.T) {
	pool := NewWorkerPool(nil, 1, 10)
	assert.NoError(t, pool.processTask(OrderTask{Kind: TaskOrderPaid, OrderID: "o1"}))
}

func TestPoolStop(t *testing.T) {
	pool := NewWorkerPool(newFakeCache(), 2, 10)
	pool.Start()

	pool.Stop()
	// Stop 幂等
	pool.Stop()

	// 停止后入队被丢弃，不写入队列也不 panic
	pool.AddTask(OrderTask{Kind: TaskOrderPaid, OrderID: "o1"})
	assert.Equal(t, 0, len(pool.TaskQueue))
}
