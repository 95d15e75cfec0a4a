package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/parkgate-realtime/internal/cache"
)

var (
	errFakeDial   = errors.New("fake dial refused")
	errFakeClosed = errors.New("fake connection closed")
)

type fakeConn struct {
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once

	mu        sync.Mutex
	written   []string
	writeGate chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	select {
	case f := <-c.inbound:
		return f, nil
	case <-c.closed:
		return nil, errFakeClosed
	}
}

func (c *fakeConn) WriteFrame(data []byte) error {
	c.mu.Lock()
	gate := c.writeGate
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-c.closed:
		}
	}

	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	c.mu.Lock()
	c.written = append(c.written, string(data))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// stallWrites makes WriteFrame block until the returned channel or the
// connection is closed.
func (c *fakeConn) stallWrites() chan struct{} {
	gate := make(chan struct{})
	c.mu.Lock()
	c.writeGate = gate
	c.mu.Unlock()
	return gate
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

// fakeTransport hands out fakeConns. While fail is set every dial fails;
// while gate is non-nil dials block until it is closed.
type fakeTransport struct {
	mu    sync.Mutex
	fail  bool
	gate  chan struct{}
	conns []*fakeConn
	dials int
}

func (t *fakeTransport) Dial(ctx context.Context) (Conn, error) {
	t.mu.Lock()
	t.dials++
	gate := t.gate
	fail := t.fail
	t.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, errFakeDial
	}

	c := newFakeConn()
	t.mu.Lock()
	t.conns = append(t.conns, c)
	t.mu.Unlock()
	return c, nil
}

func (t *fakeTransport) setFail(fail bool) {
	t.mu.Lock()
	t.fail = fail
	t.mu.Unlock()
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.conns) {
		return nil
	}
	return t.conns[i]
}

func (t *fakeTransport) connCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

type recordingStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{counts: make(map[string]int)}
}

func (s *recordingStore) Invalidate(p cache.Partition) {
	s.mu.Lock()
	s.counts[string(p)]++
	s.mu.Unlock()
}

func (s *recordingStore) count(p cache.Partition) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[string(p)]
}

func fastBackoff(maxAttempts int) ManagerConfig {
	return ManagerConfig{
		Backoff: Backoff{
			Base:        5 * time.Millisecond,
			Max:         20 * time.Millisecond,
			MaxAttempts: maxAttempts,
		},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
