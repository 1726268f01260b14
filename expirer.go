package addrcache

import (
	"container/heap"
	"sync"
	"time"
)

var (
	sharedExpirer     *expirer
	sharedExpirerOnce sync.Once
)

// defaultExpirer returns process-wide expirer, it is started on first call and never stopped.
func defaultExpirer() *expirer {
	sharedExpirerOnce.Do(func() {
		sharedExpirer = newExpirer()

		go sharedExpirer.run()
	})

	return sharedExpirer
}

type task struct {
	at  time.Time
	seq uint64
	fn  func()
}

type taskHeap []task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}

	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(task)) }

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = task{}
	*h = old[:n-1]

	return t
}

// expirer runs delayed one-shot tasks on a single goroutine in deadline order.
type expirer struct {
	mu    sync.Mutex
	tasks taskHeap
	seq   uint64

	// wake has capacity of 1 to coalesce notifications.
	wake chan struct{}
}

func newExpirer() *expirer {
	return &expirer{
		wake: make(chan struct{}, 1),
	}
}

// schedule queues fn to run after delay.
func (e *expirer) schedule(delay time.Duration, fn func()) {
	e.mu.Lock()
	e.seq++
	heap.Push(&e.tasks, task{at: time.Now().Add(delay), seq: e.seq, fn: fn})
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// pending returns number of queued tasks.
func (e *expirer) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.tasks)
}

// due pops tasks that are ready to run and returns delay until next task, or -1 if there are none.
func (e *expirer) due(now time.Time) ([]func(), time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fns []func()

	for len(e.tasks) > 0 && !e.tasks[0].at.After(now) {
		fns = append(fns, heap.Pop(&e.tasks).(task).fn)
	}

	if len(e.tasks) == 0 {
		return fns, -1
	}

	return fns, e.tasks[0].at.Sub(now)
}

func (e *expirer) run() {
	for {
		fns, wait := e.due(time.Now())

		for _, fn := range fns {
			fn()
		}

		if len(fns) > 0 {
			continue
		}

		if wait < 0 {
			<-e.wake

			continue
		}

		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
		case <-e.wake:
			timer.Stop()
		}
	}
}
