// Package compute models a compute device: kernels are dispatched as whole
// work groups, run asynchronously, and their writes are only guaranteed to be
// visible after a memory barrier.
package compute

import (
	"runtime"
	"sync"
)

// Kernel is a compute stage. Invoke runs once per element index, exactly like
// one shader invocation, and must only communicate through buffers.
type Kernel struct {
	Name      string
	GroupSize int
	Invoke    func(i int)
}

// Device executes kernels.
type Device interface {
	// Dispatch enqueues groups work groups of k and returns without waiting.
	Dispatch(k *Kernel, groups int)
	// MemoryBarrier blocks until every dispatched group has completed.
	MemoryBarrier()
	// Close stops the device. No dispatch may follow.
	Close()
}

// groupRange is a contiguous run of work groups handed to one worker.
type groupRange struct {
	kernel     *Kernel
	start, end int
}

// CPUDevice runs work groups on a persistent worker pool.
type CPUDevice struct {
	numWorkers int

	workChan chan groupRange // sends group ranges to workers
	stopChan chan struct{}   // signals workers to exit
	wg       sync.WaitGroup  // tracks active workers
	pending  sync.WaitGroup  // tracks dispatched, unfinished ranges
	closed   bool
}

// NewCPUDevice starts a device with the given worker count. workers <= 0
// uses GOMAXPROCS. With a single worker groups run in index order.
func NewCPUDevice(workers int) *CPUDevice {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &CPUDevice{
		numWorkers: workers,
		workChan:   make(chan groupRange, workers),
		stopChan:   make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Workers returns the pool size.
func (d *CPUDevice) Workers() int { return d.numWorkers }

func (d *CPUDevice) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopChan:
			return
		case r := <-d.workChan:
			runGroups(r)
			d.pending.Done()
		}
	}
}

func runGroups(r groupRange) {
	k := r.kernel
	for g := r.start; g < r.end; g++ {
		lo := g * k.GroupSize
		hi := lo + k.GroupSize
		for i := lo; i < hi; i++ {
			k.Invoke(i)
		}
	}
}

// Dispatch splits the groups into one contiguous range per worker.
func (d *CPUDevice) Dispatch(k *Kernel, groups int) {
	if d.closed {
		panic("compute: dispatch on closed device")
	}
	if groups <= 0 {
		return
	}

	chunk := (groups + d.numWorkers - 1) / d.numWorkers
	for start := 0; start < groups; start += chunk {
		end := min(start+chunk, groups)
		d.pending.Add(1)
		d.workChan <- groupRange{kernel: k, start: start, end: end}
	}
}

// MemoryBarrier waits for all outstanding groups.
func (d *CPUDevice) MemoryBarrier() {
	d.pending.Wait()
}

// Close drains outstanding work and stops the workers.
func (d *CPUDevice) Close() {
	if d.closed {
		return
	}
	d.pending.Wait()
	d.closed = true
	close(d.stopChan)
	d.wg.Wait()
}
