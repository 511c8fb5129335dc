package lock_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/rai/shop-workflow-go/internal/platform/lock"
)

// fakeConn emulates the znodes the lock recipe touches.
type fakeConn struct {
	mu      sync.Mutex
	nodes   map[string]bool
	seq     int
	watches map[string][]chan zk.Event
}

func newFakeConn() *fakeConn {
	return &fakeConn{nodes: map[string]bool{}, watches: map[string][]chan zk.Event{}}
}

func (f *fakeConn) Exists(path string) (bool, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[path], nil, nil
}

func (f *fakeConn) ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan zk.Event, 1)
	f.watches[path] = append(f.watches[path], ch)
	return f.nodes[path], nil, ch, nil
}

func (f *fakeConn) Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodes[path] {
		return "", zk.ErrNodeExists
	}
	f.nodes[path] = true
	return path, nil
}

func (f *fakeConn) CreateProtectedEphemeralSequential(path string, data []byte, acl []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	dir := path[:strings.LastIndex(path, "/")]
	// the GUID prefix sorts in reverse creation order to catch name sorting
	node := dir + "/_c_" + string(rune('z'-f.seq)) + "-lock-" + padded(f.seq)
	f.nodes[node] = true
	return node, nil
}

func (f *fakeConn) Children(path string) ([]string, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for n := range f.nodes {
		if strings.HasPrefix(n, path+"/") && !strings.Contains(strings.TrimPrefix(n, path+"/"), "/") {
			out = append(out, strings.TrimPrefix(n, path+"/"))
		}
	}
	sort.Strings(out)
	return out, nil, nil
}

func (f *fakeConn) Delete(path string, version int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.nodes[path] {
		return zk.ErrNoNode
	}
	delete(f.nodes, path)
	for _, ch := range f.watches[path] {
		ch <- zk.Event{Type: zk.EventNodeDeleted, Path: path}
	}
	delete(f.watches, path)
	return nil
}

func padded(n int) string {
	s := "0000000000" + string(rune('0'+n%10))
	return s[len(s)-10:]
}

func TestZooKeeperLocker_WaitsForPredecessor(t *testing.T) {
	locker := lock.NewZooKeeperLocker(newFakeConn(), "/test/locks", nil)
	ctx := context.Background()

	unlockFirst, err := locker.Lock(ctx, "orders/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := make(chan func(), 1)
	go func() {
		unlock, err := locker.Lock(ctx, "orders/1")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		acquired <- unlock
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}

	unlockFirst()
	select {
	case unlock := <-acquired:
		unlock()
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired the lock")
	}
}

func TestZooKeeperLocker_ContextCanceledRemovesNode(t *testing.T) {
	conn := newFakeConn()
	locker := lock.NewZooKeeperLocker(conn, "/test/locks", nil)

	unlock, err := locker.Lock(context.Background(), "orders/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "orders/1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	children, _, _ := conn.Children("/test/locks/orders_1")
	if len(children) != 1 {
		t.Errorf("expected only the holder's node, got %v", children)
	}
}
