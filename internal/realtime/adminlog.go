package realtime

import "sync"

// AdminLogCapacity is the number of admin updates kept for display.
const AdminLogCapacity = 10

// AdminLog is a bounded ring buffer of the most recent admin updates.
type AdminLog struct {
	mu    sync.RWMutex
	items []AdminUpdate
	next  int // slot the next Push writes
	size  int
}

// NewAdminLog creates an AdminLog holding at most capacity entries.
func NewAdminLog(capacity int) *AdminLog {
	if capacity < 1 {
		capacity = AdminLogCapacity
	}
	return &AdminLog{items: make([]AdminUpdate, capacity)}
}

// Push records u, evicting the oldest entry when the log is full.
func (l *AdminLog) Push(u AdminUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items[l.next] = u
	l.next = (l.next + 1) % len(l.items)
	if l.size < len(l.items) {
		l.size++
	}
}

// Recent returns the logged updates, newest first.
func (l *AdminLog) Recent() []AdminUpdate {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]AdminUpdate, 0, l.size)
	for i := 1; i <= l.size; i++ {
		idx := (l.next - i + len(l.items)) % len(l.items)
		out = append(out, l.items[idx])
	}
	return out
}

// Len returns the number of logged updates.
func (l *AdminLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}
