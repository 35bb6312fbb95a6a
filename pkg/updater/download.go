package updater

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/log"
)

type TaskStatus string

const (
	TaskPending     TaskStatus = "PENDING"
	TaskDownloading TaskStatus = "DOWNLOADING"
	TaskDone        TaskStatus = "DONE"
	TaskFailed      TaskStatus = "FAILED"
	TaskStopped     TaskStatus = "STOPPED"
)

func (s TaskStatus) IsFinished() bool {
	return s == TaskDone || s == TaskFailed || s == TaskStopped
}

// DownloadTask is a snapshot of one fetch, safe to hand out.
type DownloadTask struct {
	ID         string
	Release    *Release
	Status     TaskStatus
	Done       int64
	Total      int64
	Path       string
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (t DownloadTask) Progress() float64 {
	if t.Total <= 0 {
		return 0
	}
	p := float64(t.Done) / float64(t.Total)
	if p > 1 {
		p = 1
	}
	return p
}

type task struct {
	snap   DownloadTask
	done   atomic.Int64
	cancel context.CancelFunc
}

// Manager fetches release assets one at a time and reports progress
// through a callback.
type Manager struct {
	dir  string
	http *http.Client

	mu       sync.Mutex
	tasks    map[string]*task
	active   string
	onUpdate func(DownloadTask)
}

func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		http:  &http.Client{Timeout: 10 * time.Minute},
		tasks: map[string]*task{},
	}
}

// SetUpdateCallback registers the progress sink. Call before Start.
func (m *Manager) SetUpdateCallback(cb func(DownloadTask)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = cb
}

// Start begins fetching the release asset. Only one download runs at
// a time, a second Start while one is active is refused.
func (m *Manager) Start(ctx context.Context, rel *Release) (DownloadTask, error) {
	if rel == nil || rel.AssetURL == "" {
		return DownloadTask{}, errors.New("release has no asset")
	}
	m.mu.Lock()
	if m.active != "" {
		id := m.active
		m.mu.Unlock()
		return DownloadTask{}, errors.Errorf("download %s already running", id)
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &task{
		snap: DownloadTask{
			ID:        uuid.NewString(),
			Release:   rel,
			Status:    TaskPending,
			Total:     rel.AssetSize,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	m.tasks[t.snap.ID] = t
	m.active = t.snap.ID
	snap := t.snap
	m.mu.Unlock()

	go m.run(ctx, t)
	return snap, nil
}

// Get returns a task snapshot.
func (m *Manager) Get(id string) (DownloadTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return DownloadTask{}, false
	}
	snap := t.snap
	snap.Done = t.done.Load()
	return snap, true
}

// Active returns the running task snapshot, ok false when idle.
func (m *Manager) Active() (DownloadTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[m.active]
	if !ok {
		return DownloadTask{}, false
	}
	snap := t.snap
	snap.Done = t.done.Load()
	return snap, true
}

// LastFinished returns the newest task that reached a terminal state.
func (m *Manager) LastFinished() (DownloadTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best DownloadTask
	var found bool
	for _, t := range m.tasks {
		if !t.snap.Status.IsFinished() {
			continue
		}
		if !found || t.snap.FinishedAt.After(best.FinishedAt) {
			best = t.snap
			best.Done = t.done.Load()
			found = true
		}
	}
	return best, found
}

// Stop cancels a running download.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	m.mu.Unlock()
	if !ok {
		return errors.Errorf("no task %s", id)
	}
	t.cancel()
	return nil
}

func (m *Manager) run(ctx context.Context, t *task) {
	defer t.cancel()
	m.setStatus(t, TaskDownloading, "")

	path, err := m.fetch(ctx, t)

	m.mu.Lock()
	m.active = ""
	t.snap.Done = t.done.Load()
	t.snap.FinishedAt = time.Now()
	switch {
	case err == nil:
		t.snap.Status = TaskDone
		t.snap.Path = path
		if t.snap.Total <= 0 {
			t.snap.Total = t.snap.Done
		}
	case errors.Is(err, context.Canceled):
		t.snap.Status = TaskStopped
	default:
		t.snap.Status = TaskFailed
		t.snap.Err = err.Error()
		log.Errorf("download failed", "id", t.snap.ID, "err", err)
	}
	snap := t.snap
	cb := m.onUpdate
	m.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}

func (m *Manager) fetch(ctx context.Context, t *task) (string, error) {
	if err := commons.EnsureDir(m.dir); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.snap.Release.AssetURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "whatsave")
	resp, err := m.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetch asset")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("asset answered %d", resp.StatusCode)
	}
	if t.snap.Total <= 0 && resp.ContentLength > 0 {
		m.mu.Lock()
		t.snap.Total = resp.ContentLength
		m.mu.Unlock()
	}

	path := filepath.Join(m.dir, t.snap.Release.AssetName)
	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}

	w := &progressWriter{t: t, m: m}
	_, err = io.Copy(io.MultiWriter(out, w), resp.Body)
	cerr := out.Close()
	if err != nil {
		os.Remove(tmp)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrap(err, "download body")
	}
	if cerr != nil {
		os.Remove(tmp)
		return "", cerr
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "finalize download")
	}
	return path, nil
}

func (m *Manager) setStatus(t *task, st TaskStatus, errMsg string) {
	m.mu.Lock()
	t.snap.Status = st
	t.snap.Err = errMsg
	t.snap.Done = t.done.Load()
	snap := t.snap
	cb := m.onUpdate
	m.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}

// progressWriter counts bytes off the wire and pushes a throttled
// snapshot to the callback.
type progressWriter struct {
	t    *task
	m    *Manager
	last time.Time
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.t.done.Add(int64(len(p)))
	if time.Since(w.last) >= 100*time.Millisecond {
		w.last = time.Now()
		w.m.setStatus(w.t, TaskDownloading, "")
	}
	return len(p), nil
}
