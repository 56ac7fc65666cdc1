package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	lockPollStep  = 120 * time.Millisecond
	lockHeartbeat = time.Minute
	// lockStaleAge only applies when the owner cannot be checked directly
	// (another host, unreadable owner file, no liveness probe on this OS).
	lockStaleAge = 5 * time.Minute
)

// profileLock marks a browser profile as in use for the lifetime of a session.
// The lock is a directory holding an owner file; its mtime is refreshed while
// held so other hosts can tell a live lock from an abandoned one.
type profileLock struct {
	path string
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

type lockOwner struct {
	pid  int
	host string
}

// acquireProfileLock creates path as a directory, waiting while another live
// session holds it. waiting is called before every poll with the time waited
// so far.
func acquireProfileLock(ctx context.Context, path string, waiting func(waited time.Duration)) (*profileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	var waited time.Duration
	for {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return newProfileLock(path)
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}

		if lockAbandoned(path) {
			_ = os.RemoveAll(path)
			continue
		}

		if waiting != nil {
			waiting(waited)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollStep):
			waited += lockPollStep
		}
	}
}

func newProfileLock(path string) (*profileLock, error) {
	host, _ := os.Hostname()
	owner := fmt.Sprintf("pid=%d\nhost=%s\nacquired=%s\n", os.Getpid(), host, time.Now().Format(time.RFC3339Nano))
	if err := os.WriteFile(filepath.Join(path, "owner"), []byte(owner), 0o644); err != nil {
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("failed to write lock owner: %w", err)
	}

	l := &profileLock{path: path, stop: make(chan struct{})}
	l.wg.Add(1)
	go l.heartbeat()
	return l, nil
}

func (l *profileLock) heartbeat() {
	defer l.wg.Done()
	t := time.NewTicker(lockHeartbeat)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-t.C:
			_ = os.Chtimes(l.path, now, now)
		}
	}
}

// Release stops the heartbeat and removes the lock. Safe to call more than once.
func (l *profileLock) Release() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		l.wg.Wait()
		err = os.RemoveAll(l.path)
	})
	return err
}

// lockAbandoned reports whether the lock at path can be taken over. A lock
// owned by a process on this host is abandoned only when that process is
// gone, however old the lock is.
func lockAbandoned(path string) bool {
	if owner, ok := readLockOwner(path); ok {
		if host, _ := os.Hostname(); owner.host == host {
			if alive, known := processAlive(owner.pid); known {
				return !alive
			}
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > lockStaleAge
}

func readLockOwner(path string) (lockOwner, bool) {
	f, err := os.Open(filepath.Join(path, "owner"))
	if err != nil {
		return lockOwner{}, false
	}
	defer f.Close()

	var o lockOwner
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.pid, _ = strconv.Atoi(value)
		case "host":
			o.host = value
		}
	}
	return o, o.pid > 0
}
