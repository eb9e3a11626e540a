package render

import "sync"

// pool is a fixed set of goroutines draining a task queue.
type pool struct {
	size  int
	tasks chan func()
	wg    sync.WaitGroup
}

func newPool(n int) *pool {
	if n < 1 {
		n = 1
	}
	p := &pool{size: n, tasks: make(chan func(), n)}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

func (p *pool) submit(task func()) { p.tasks <- task }

// close stops the workers after the queued tasks ran.
func (p *pool) close() {
	close(p.tasks)
	p.wg.Wait()
}
