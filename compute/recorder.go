package compute

import (
	"fmt"
	"sync"
)

// Recorder wraps a Device and logs the command stream it receives, one
// "dispatch <name> <groups>" or "barrier" entry per call.
type Recorder struct {
	Device

	mu       sync.Mutex
	commands []string
}

// NewRecorder records the commands sent to dev.
func NewRecorder(dev Device) *Recorder {
	return &Recorder{Device: dev}
}

func (r *Recorder) Dispatch(k *Kernel, groups int) {
	r.append(fmt.Sprintf("dispatch %s %d", k.Name, groups))
	r.Device.Dispatch(k, groups)
}

func (r *Recorder) MemoryBarrier() {
	r.append("barrier")
	r.Device.MemoryBarrier()
}

func (r *Recorder) append(cmd string) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
}

// Commands returns a copy of the recorded stream.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}

// Reset clears the recorded stream.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.commands = r.commands[:0]
	r.mu.Unlock()
}
