package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
)

const defaultLockRoot = "/shop/locks"

// Conn is the subset of *zk.Conn the locker uses.
type Conn interface {
	Exists(path string) (bool, *zk.Stat, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	CreateProtectedEphemeralSequential(path string, data []byte, acl []zk.ACL) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	Delete(path string, version int32) error
}

// ZooKeeperLocker serializes callers per key across processes with the
// ephemeral sequential node recipe: the lowest sequence number holds the
// lock, every other waiter watches its predecessor.
type ZooKeeperLocker struct {
	conn   Conn
	root   string
	logger *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

func NewZooKeeperLocker(conn Conn, root string, logger *slog.Logger) *ZooKeeperLocker {
	if root == "" {
		root = defaultLockRoot
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ZooKeeperLocker{
		conn:    conn,
		root:    strings.TrimSuffix(root, "/"),
		logger:  logger,
		ensured: make(map[string]bool),
	}
}

// Dial connects to the ensemble and logs session state changes until the
// connection is closed.
func Dial(servers []string, sessionTimeout time.Duration, logger *slog.Logger) (*zk.Conn, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to zookeeper: %w", err)
	}
	go func() {
		for ev := range events {
			if ev.Type == zk.EventSession {
				logger.Debug("zookeeper session", slog.String("state", ev.State.String()))
			}
		}
	}()
	return conn, nil
}

func (l *ZooKeeperLocker) Lock(ctx context.Context, key string) (func(), error) {
	dir := l.root + "/" + strings.ReplaceAll(key, "/", "_")
	if err := l.ensurePath(dir); err != nil {
		return nil, err
	}

	node, err := l.conn.CreateProtectedEphemeralSequential(dir+"/lock-", nil, zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, fmt.Errorf("creating lock node: %w", err)
	}
	unlock := func() {
		if err := l.conn.Delete(node, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
			l.logger.Error("releasing zookeeper lock", slog.String("node", node), slog.Any("error", err))
		}
	}

	if err := l.wait(ctx, dir, node); err != nil {
		unlock()
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(unlock) }, nil
}

func (l *ZooKeeperLocker) wait(ctx context.Context, dir, node string) error {
	own := node[strings.LastIndex(node, "/")+1:]
	for {
		children, _, err := l.conn.Children(dir)
		if err != nil {
			return fmt.Errorf("listing lock nodes: %w", err)
		}
		// protected nodes carry a GUID prefix, so order by the sequence suffix
		slices.SortFunc(children, func(a, b string) int {
			return strings.Compare(sequence(a), sequence(b))
		})

		i := slices.Index(children, own)
		if i < 0 {
			return errors.New("lock node vanished, session expired?")
		}
		if i == 0 {
			return nil
		}

		exists, _, watch, err := l.conn.ExistsW(dir + "/" + children[i-1])
		if err != nil {
			return fmt.Errorf("watching predecessor: %w", err)
		}
		if !exists {
			continue
		}
		select {
		case <-watch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *ZooKeeperLocker) ensurePath(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ensured[path] {
		return nil
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := ""
	for _, p := range parts {
		cur += "/" + p
		exists, _, err := l.conn.Exists(cur)
		if err != nil {
			return fmt.Errorf("checking %s: %w", cur, err)
		}
		if exists {
			continue
		}
		if _, err := l.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll)); err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return fmt.Errorf("creating %s: %w", cur, err)
		}
	}
	l.ensured[path] = true
	return nil
}

// sequence returns the zero padded counter ZooKeeper appends to the name.
func sequence(name string) string {
	if len(name) < 10 {
		return name
	}
	return name[len(name)-10:]
}
