package torch

import (
	"net"
	"sync"

	"github.com/eapache/queue"
)

// workerPool is a fixed-size set of workers consuming accepted connections
// from a FIFO task queue guarded by a mutex and a condition variable.
type workerPool struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	tasks  *queue.Queue
	closed bool

	handle func(net.Conn)
}

// newWorkerPool returns a new instance of the `workerPool` running the n
// workers, each serving queued connections with the handle.
func newWorkerPool(n int, handle func(net.Conn)) *workerPool {
	p := &workerPool{
		tasks:  queue.New(),
		handle: handle,
	}

	p.cond = sync.NewCond(&p.mutex)

	if n < 1 {
		n = 1
	}

	for i := 0; i < n; i++ {
		go p.work()
	}

	return p
}

// enqueue appends the conn to the task queue and wakes one waiting worker.
func (p *workerPool) enqueue(conn net.Conn) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		conn.Close()
		return
	}

	p.tasks.Add(conn)
	p.cond.Signal()
}

// close marks the p closed, closes the queued connections and wakes every
// worker so it can exit.
func (p *workerPool) close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	for p.tasks.Length() > 0 {
		p.tasks.Remove().(net.Conn).Close()
	}

	p.cond.Broadcast()
}

// work is one worker's loop: wait on the condition until the queue is
// non-empty or the pool is closed, pop the head connection under the lock,
// serve it outside the lock.
func (p *workerPool) work() {
	for {
		p.mutex.Lock()
		for p.tasks.Length() == 0 && !p.closed {
			p.cond.Wait()
		}

		if p.tasks.Length() == 0 {
			p.mutex.Unlock()
			return
		}

		conn := p.tasks.Remove().(net.Conn)
		p.mutex.Unlock()

		p.serve(conn)
	}
}

// serve runs the handle on the conn, swallowing panics so they cannot kill
// the worker.
func (p *workerPool) serve(conn net.Conn) {
	defer func() {
		recover()
	}()

	p.handle(conn)
}
