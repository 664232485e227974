package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/jar"
	"github.com/jar-analysis/jar-analysis-go/internal/scanner"
)

// ClassScanner 单个类文件扫描器
type ClassScanner interface {
	Scan(data []byte, path string, info *domain.ResourceInfo) (*domain.ScanResult, error)
}

// Task 任务：一个类文件条目
type Task struct {
	Entry jar.Entry
}

// Result 任务结果。Result 为空且 Err 为空表示结果被抑制
type Result struct {
	Path   string
	Result *domain.ScanResult
	Err    error
}

// Pool Worker 池
type Pool struct {
	workers  int
	taskChan chan *Task
	results  chan Result
	scanner  ClassScanner
	logger   *logrus.Logger
	wg       sync.WaitGroup
}

// NewPool 创建 Worker 池，workers <= 0 时使用全部 CPU
func NewPool(workers int, s ClassScanner, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers:  workers,
		taskChan: make(chan *Task, workers*4),
		results:  make(chan Result, workers*4),
		scanner:  s,
		logger:   logger,
	}
}

// Workers 实际 worker 数
func (p *Pool) Workers() int {
	return p.workers
}

// Start 启动 Worker 池
func (p *Pool) Start(ctx context.Context) {
	p.logger.WithField("workers", p.workers).Debug("Starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// worker Worker 协程，在两个文件之间检查取消信号，正在扫描的文件总会完成
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("worker_id", id).Debug("Worker shutting down")
			return

		case task, ok := <-p.taskChan:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}

			p.results <- p.process(task)
		}
	}
}

func (p *Pool) process(task *Task) Result {
	entry := task.Entry
	if entry.Err != nil {
		return Result{Path: entry.Path, Err: scanner.NewIOError(entry.Path, entry.Err)}
	}

	result, err := p.scanner.Scan(entry.Data, entry.Path, entry.Info)
	if err != nil {
		p.logger.WithError(err).WithField("path", entry.Path).Debug("Class scan failed")
	}
	return Result{Path: entry.Path, Result: result, Err: err}
}

// Submit 提交任务，队列满时阻塞直到 ctx 结束
func (p *Pool) Submit(ctx context.Context, task *Task) error {
	select {
	case p.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results 结果通道，Stop 之后关闭
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stop 停止接收任务，等待所有 worker 退出后关闭结果通道
func (p *Pool) Stop() {
	close(p.taskChan)
	p.wg.Wait()
	close(p.results)
	p.logger.Debug("Worker pool stopped")
}

// GetQueueSize 获取队列中任务数
func (p *Pool) GetQueueSize() int {
	return len(p.taskChan)
}
