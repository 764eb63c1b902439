package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"linenloft/internal/pkg/push"
	"linenloft/pkg/cache"
)

// 任务类型
const (
	TaskOrderPaid          = "order_paid"
	TaskOrderShipped       = "order_shipped"
	TaskOrderCancelled     = "order_cancelled"
	TaskOrderStatusChanged = "order_status_changed"
)

// OrderTask 订单状态变更后的异步副作用：缓存失效 + 通知推送
// 状态写入本身是同步完成的，这里只做可丢失的旁路工作
type OrderTask struct {
	Kind       string
	OrderID    string
	OrderNo    string
	CustomerID string // 游客订单为空，跳过推送
	Retry      int    // 重试次数
}

type WorkerPool struct {
	TaskQueue  chan OrderTask
	RetryQueue chan OrderTask // 重试队列
	Cache      cache.CacheService
	WorkerNum  int
	MaxRetry   int // 最大重试次数

	quit     chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
	stopOnce sync.Once
}

func NewWorkerPool(cacheService cache.CacheService, workerNum int, bufferSize int) *WorkerPool {
	return &WorkerPool{
		TaskQueue:  make(chan OrderTask, bufferSize),
		RetryQueue: make(chan OrderTask, bufferSize/2),
		Cache:      cacheService,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		quit:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	log.Printf("Worker pool started with %d workers", p.WorkerNum)
}

// Stop 停止接收新任务并等待所有协程退出
// 队列中未处理的任务直接丢弃，缓存有 TTL 兜底
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.quit)
		p.wg.Wait()
		log.Println("Worker pool stopped")
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.TaskQueue:
			p.handle(id, task)
		case <-p.quit:
			return
		}
	}
}

func (p *WorkerPool) handle(id int, task OrderTask) {
	if err := p.processTask(task); err != nil {
		log.Printf("[Worker %d] Failed to process task (Kind: %s, OrderNo: %s): %v",
			id, task.Kind, task.OrderNo, err)

		// 如果未达到最大重试次数，加入重试队列
		if task.Retry < p.MaxRetry {
			task.Retry++
			select {
			case p.RetryQueue <- task:
			default:
				log.Printf("[Worker %d] Retry queue full, task dropped: %+v", id, task)
				p.logFailedTask(task, err)
			}
		} else {
			p.logFailedTask(task, err)
		}
	}
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			time.Sleep(time.Duration(task.Retry) * time.Second)
			p.AddTask(task)
		case <-p.quit:
			return
		}
	}
}

func (p *WorkerPool) processTask(task OrderTask) error {
	// 1. 订单读缓存失效
	// 缓存键带身份后缀 order:<id>:<owner>，按前缀批量失效可以同时覆盖顾客与游客视角
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.Cache != nil {
		if err := p.Cache.InvalidatePattern(ctx, fmt.Sprintf("order:%s:*", task.OrderID)); err != nil {
			return err
		}
	}

	// 2. 通知推送（未配置推送或游客订单直接跳过）
	if push.GlobalPushService == nil || task.CustomerID == "" {
		return nil
	}

	switch task.Kind {
	case TaskOrderPaid:
		return push.GlobalPushService.PushOrderPaid(task.CustomerID, task.OrderNo)
	case TaskOrderShipped:
		return push.GlobalPushService.PushOrderShipped(task.CustomerID, task.OrderNo)
	}
	return nil
}

func (p *WorkerPool) logFailedTask(task OrderTask, err error) {
	// 推送与缓存失效允许最终失败，缓存有 TTL 兜底
	log.Printf("[DeadLetter] Task failed permanently: Kind=%s, OrderNo=%s, Error=%v",
		task.Kind, task.OrderNo, err)
}

func (p *WorkerPool) AddTask(task OrderTask) {
	if p.stopped.Load() {
		p.logFailedTask(task, nil)
		return
	}

	select {
	case p.TaskQueue <- task:
		// 任务入队成功
	default:
		log.Printf("Worker pool queue full, dropping task: %+v", task)
		p.logFailedTask(task, nil)
	}
}
