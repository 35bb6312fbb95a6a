package coordinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/countries"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
	"github.com/maxcodl/WhatSave/pkg/storage"
	"github.com/maxcodl/WhatSave/pkg/updater"
	"github.com/maxcodl/WhatSave/pkg/wa"
	"github.com/maxcodl/WhatSave/sources"
)

type fakeRepo struct {
	mu         sync.Mutex
	scans      int
	clients    []wa.Client
	statuses   map[commons.MediaKind][]commons.StatusItem
	savedItems map[commons.MediaKind][]commons.StatusItem
	saveRes    commons.StatusItem
	saveErr    error
	batchURIs  map[string]string
	batchErr   error
	delOK      bool
	delErr     error
	delCount   int
	req        *mediastore.DeleteRequest
	reqErr     error
	events     chan sources.WatchEvent
	country    countries.Country
	setErr     error
}

func (r *fakeRepo) Clients() []wa.Client { return r.clients }

func (r *fakeRepo) Statuses(ctx context.Context, kind commons.MediaKind, opts sources.ScanOpts) ([]commons.StatusItem, error) {
	r.mu.Lock()
	r.scans++
	r.mu.Unlock()
	return r.statuses[kind], nil
}

func (r *fakeRepo) scanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

func (r *fakeRepo) SavedStatuses(ctx context.Context, kind commons.MediaKind) ([]commons.StatusItem, error) {
	return r.savedItems[kind], nil
}

func (r *fakeRepo) SaveStatus(ctx context.Context, item *commons.StatusItem, name string) (commons.StatusItem, error) {
	return r.saveRes, r.saveErr
}

func (r *fakeRepo) SaveStatuses(ctx context.Context, items []commons.StatusItem) (map[string]string, error) {
	return r.batchURIs, r.batchErr
}

func (r *fakeRepo) DeleteStatus(ctx context.Context, item *commons.StatusItem) (bool, error) {
	return r.delOK, r.delErr
}

func (r *fakeRepo) DeleteStatuses(ctx context.Context, kind commons.MediaKind, names []string) (int, error) {
	return r.delCount, r.delErr
}

func (r *fakeRepo) DeleteRequestFor(kind commons.MediaKind, names []string) (*mediastore.DeleteRequest, error) {
	return r.req, r.reqErr
}

func (r *fakeRepo) Watch(ctx context.Context, opts sources.WatchOpts) (chan sources.WatchEvent, error) {
	if r.events == nil {
		return nil, errors.New("no watcher")
	}
	return r.events, nil
}

func (r *fakeRepo) AllCountries() ([]countries.Country, error) { return countries.All() }

func (r *fakeRepo) DefaultCountry() (countries.Country, error) { return r.country, nil }

func (r *fakeRepo) SetDefaultCountry(c countries.Country) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.mu.Lock()
	r.country = c
	r.mu.Unlock()
	return nil
}

type fakeFeed struct {
	rel *updater.Release
	err error
}

func (f *fakeFeed) LatestRelease(ctx context.Context) (*updater.Release, error) {
	return f.rel, f.err
}

func rig(t *testing.T, opts *Opts) *StatusCoordinator {
	t.Helper()
	c, err := NewStatusCoordinator(opts)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for a published value")
	}
	panic("unreachable")
}

func expectQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value published: %+v", v)
	case <-time.After(200 * time.Millisecond):
	}
}

func openIndex(t *testing.T) *mediastore.Index {
	t.Helper()
	idx, err := mediastore.Open(filepath.Join(t.TempDir(), "media.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestGetStatusesSameFeed(t *testing.T) {
	c := rig(t, &Opts{Repo: &fakeRepo{}})
	a := c.GetStatuses(commons.KindImage)
	c.LoadStatuses(commons.KindImage, sources.ScanOpts{})
	b := c.GetStatuses(commons.KindImage)
	if a != b {
		t.Fatalf("repeat GetStatuses handed out a different feed")
	}
	if c.GetStatuses(commons.KindVideo) == a {
		t.Fatalf("video kind shares the image feed")
	}
	if c.GetSavedStatuses(commons.KindImage) == a {
		t.Fatalf("saved feed aliases the status feed")
	}
}

func TestLoadStatusesWithoutFeed(t *testing.T) {
	fake := &fakeRepo{statuses: map[commons.MediaKind][]commons.StatusItem{
		commons.KindImage: {{Name: "a.jpg"}},
	}}
	c := rig(t, &Opts{Repo: fake})

	// nobody opened the feed, so this must be a no-op
	c.LoadStatuses(commons.KindImage, sources.ScanOpts{})
	time.Sleep(100 * time.Millisecond)
	if n := fake.scanCount(); n != 0 {
		t.Fatalf("refresh without a feed hit the repository %d times", n)
	}

	sub, stop := c.GetStatuses(commons.KindImage).Subscribe()
	defer stop()
	c.LoadStatuses(commons.KindImage, sources.ScanOpts{})
	items := recv(t, sub)
	if len(items) != 1 || items[0].Name != "a.jpg" {
		t.Fatalf("got %+v", items)
	}
}

func TestLoadSavedStatuses(t *testing.T) {
	fake := &fakeRepo{savedItems: map[commons.MediaKind][]commons.StatusItem{
		commons.KindVideo: {{Name: "v.mp4", Saved: true}},
	}}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.GetSavedStatuses(commons.KindVideo).Subscribe()
	defer stop()
	c.LoadSavedStatuses(commons.KindVideo)
	items := recv(t, sub)
	if len(items) != 1 || !items[0].Saved {
		t.Fatalf("got %+v", items)
	}
}

func TestSaveStatusTwoPhases(t *testing.T) {
	item := &commons.StatusItem{Name: "a.jpg", Kind: commons.KindImage}
	fake := &fakeRepo{saveRes: commons.StatusItem{Name: "a.jpg", URI: "content://media/external/images/media/7", Saved: true}}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.Saves().Subscribe()
	defer stop()
	c.SaveStatus(item, "")

	first := recv(t, sub)
	if !first.InProgress || first.Item != item {
		t.Fatalf("first record should be in-progress for the same item, got %+v", first)
	}
	second := recv(t, sub)
	if second.InProgress || second.Item != item {
		t.Fatalf("second record should be terminal for the same item, got %+v", second)
	}
	if second.URI != "content://media/external/images/media/7" || second.Saved != 1 || second.Err != nil {
		t.Fatalf("terminal record wrong: %+v", second)
	}
	expectQuiet(t, sub)
}

func TestSaveStatusSkippedKeepsNoURI(t *testing.T) {
	item := &commons.StatusItem{Name: "a.jpg", Kind: commons.KindImage}
	fake := &fakeRepo{saveRes: commons.StatusItem{Name: "a.jpg", Saved: true}}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.Saves().Subscribe()
	defer stop()
	c.SaveStatus(item, "")

	recv(t, sub) // in-progress
	term := recv(t, sub)
	if term.URI != "" || term.Err != nil || term.Saved != 0 {
		t.Fatalf("skipped save should report empty uri and no error, got %+v", term)
	}
}

func TestSaveStatusesEmptyBatch(t *testing.T) {
	c := rig(t, &Opts{Repo: &fakeRepo{batchURIs: map[string]string{}}})

	sub, stop := c.Saves().Subscribe()
	defer stop()
	c.SaveStatuses(nil)

	first := recv(t, sub)
	if !first.InProgress {
		t.Fatalf("empty batch skipped the in-progress phase: %+v", first)
	}
	term := recv(t, sub)
	if term.InProgress || term.Saved != 0 || term.Err != nil {
		t.Fatalf("empty batch terminal record wrong: %+v", term)
	}
}

func TestSaveStatusesPartialFailure(t *testing.T) {
	items := []commons.StatusItem{
		{Name: "ok.jpg", Client: "com.whatsapp", Kind: commons.KindImage},
		{Name: "bad.jpg", Client: "com.whatsapp", Kind: commons.KindImage},
	}
	fake := &fakeRepo{
		batchURIs: map[string]string{items[0].Key(): "content://media/external/images/media/3"},
		batchErr:  errors.New("bad.jpg: permission denied"),
	}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.Saves().Subscribe()
	defer stop()
	c.SaveStatuses(items)

	recv(t, sub) // in-progress
	term := recv(t, sub)
	if term.Saved != 1 || term.Err == nil {
		t.Fatalf("partial batch should keep the success and the error: %+v", term)
	}
	if term.URIs[0] == "" || term.URIs[1] != "" {
		t.Fatalf("uri slots misaligned: %+v", term.URIs)
	}
}

func TestDeleteStatusTwoPhases(t *testing.T) {
	item := &commons.StatusItem{Name: "a.jpg", Kind: commons.KindImage}
	c := rig(t, &Opts{Repo: &fakeRepo{delOK: true}})

	sub, stop := c.Deletes().Subscribe()
	defer stop()
	c.DeleteStatus(item)

	first := recv(t, sub)
	if !first.InProgress || first.Item != item {
		t.Fatalf("first record wrong: %+v", first)
	}
	term := recv(t, sub)
	if term.InProgress || !term.Deleted || term.Count != 1 {
		t.Fatalf("terminal record wrong: %+v", term)
	}
}

func TestDeleteStatusesEmptyBatch(t *testing.T) {
	c := rig(t, &Opts{Repo: &fakeRepo{}})

	sub, stop := c.Deletes().Subscribe()
	defer stop()
	c.DeleteStatuses(nil)

	first := recv(t, sub)
	if !first.InProgress {
		t.Fatalf("empty batch skipped the in-progress phase: %+v", first)
	}
	term := recv(t, sub)
	if term.Count != 0 || term.Err != nil {
		t.Fatalf("empty batch terminal record wrong: %+v", term)
	}
}

func TestCreateDeleteRequestZeroResolve(t *testing.T) {
	idx := openIndex(t)
	req, err := idx.NewDeleteRequest(nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	c := rig(t, &Opts{Repo: &fakeRepo{req: req}})

	sub, stop := c.DeleteRequests().Subscribe()
	defer stop()
	c.CreateDeleteRequest(commons.KindImage, []string{"ghost.jpg"})
	expectQuiet(t, sub)
}

func TestCreateDeleteRequestPublishesAndExecutes(t *testing.T) {
	idx := openIndex(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	id, err := idx.Insert(mediastore.Entry{
		Name: "saved.jpg", Kind: commons.KindImage,
		RelPath: commons.KindImage.RelativePath(), AbsPath: path,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	req, err := idx.NewDeleteRequest([]int64{id})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	c := rig(t, &Opts{Repo: &fakeRepo{req: req}})

	sub, stop := c.DeleteRequests().Subscribe()
	defer stop()
	c.CreateDeleteRequest(commons.KindImage, []string{"saved.jpg"})
	got := recv(t, sub)
	if got.Count() != 1 {
		t.Fatalf("request resolved %d entries", got.Count())
	}

	dsub, dstop := c.Deletes().Subscribe()
	defer dstop()
	c.ExecuteDeleteRequest(got)
	recv(t, dsub) // in-progress
	term := recv(t, dsub)
	if term.Count != 1 || term.Err != nil {
		t.Fatalf("execute outcome wrong: %+v", term)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still on disk after execute")
	}
}

func TestSetSelectedCountryEmits(t *testing.T) {
	fake := &fakeRepo{}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.SelectedCountry().Subscribe()
	defer stop()
	br, err := countries.ByCode("BR")
	if err != nil {
		t.Fatal(err)
	}
	c.SetSelectedCountry(br)
	got := recv(t, sub)
	if got.Code != "BR" {
		t.Fatalf("emitted %+v", got)
	}
}

func TestSetSelectedCountryPersistFailure(t *testing.T) {
	fake := &fakeRepo{setErr: errors.New("disk full")}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.SelectedCountry().Subscribe()
	defer stop()
	in, err := countries.ByCode("IN")
	if err != nil {
		t.Fatal(err)
	}
	c.SetSelectedCountry(in)
	expectQuiet(t, sub)
}

func TestLoadLists(t *testing.T) {
	fake := &fakeRepo{
		clients: []wa.Client{{Name: "WhatsApp", Package: "com.whatsapp"}},
		country: countries.Country{Code: "IN", Name: "India", Dial: "91"},
	}
	vols := []storage.Volume{{Mount: "/", Total: 100, Free: 40, Primary: true}}
	c := rig(t, &Opts{
		Repo:      fake,
		VolumesFn: func() ([]storage.Volume, error) { return vols, nil },
	})

	csub, cstop := c.Clients().Subscribe()
	defer cstop()
	c.LoadClients()
	if got := recv(t, csub); len(got) != 1 || got[0].Package != "com.whatsapp" {
		t.Fatalf("clients: %+v", got)
	}

	vsub, vstop := c.StorageDevices().Subscribe()
	defer vstop()
	c.LoadStorageDevices()
	if got := recv(t, vsub); len(got) != 1 || !got[0].Primary {
		t.Fatalf("volumes: %+v", got)
	}

	nsub, nstop := c.Countries().Subscribe()
	defer nstop()
	c.LoadCountries()
	if got := recv(t, nsub); len(got) == 0 {
		t.Fatalf("country catalog came back empty")
	}

	ssub, sstop := c.SelectedCountry().Subscribe()
	defer sstop()
	c.LoadSelectedCountry()
	if got := recv(t, ssub); got.Code != "IN" {
		t.Fatalf("selected: %+v", got)
	}
}

func TestWatchRefreshesOpenFeeds(t *testing.T) {
	events := make(chan sources.WatchEvent, 1)
	fake := &fakeRepo{
		events: events,
		statuses: map[commons.MediaKind][]commons.StatusItem{
			commons.KindImage: {{Name: "fresh.jpg"}},
		},
	}
	c := rig(t, &Opts{Repo: fake})

	sub, stop := c.GetStatuses(commons.KindImage).Subscribe()
	defer stop()
	if err := c.WatchStatuses(sources.WatchOpts{}, sources.ScanOpts{}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	events <- sources.WatchEvent{Client: "com.whatsapp"}
	items := recv(t, sub)
	if len(items) != 1 || items[0].Name != "fresh.jpg" {
		t.Fatalf("got %+v", items)
	}
}

func TestGetUpdateStateWhileDownloading(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("payload"))
	}))
	defer srv.Close()
	defer unblock()

	mgr := updater.NewManager(t.TempDir())
	c := rig(t, &Opts{Repo: &fakeRepo{}, Downloads: mgr, Version: "1.0.0"})

	fsub, fstop := c.Fetches().Subscribe()
	defer fstop()
	rel := &updater.Release{Version: "2.0.0", AssetName: "whatsave.apk", AssetURL: srv.URL + "/whatsave.apk"}
	c.DownloadRelease(rel)
	for {
		task := recv(t, fsub)
		if task.Status == updater.TaskDownloading {
			break
		}
	}

	usub, ustop := c.Updates().Subscribe()
	defer ustop()
	c.GetUpdateState()
	got := recv(t, usub)
	if !got.Downloading || got.Package != "" || got.Latest != nil {
		t.Fatalf("expected a bare downloading record, got %+v", got)
	}
	expectQuiet(t, usub)

	// let the fetch finish so the temp dir can be torn down
	unblock()
	for {
		task := recv(t, fsub)
		if task.Status.IsFinished() {
			break
		}
	}
}

func TestGetUpdateStateAfterDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	mgr := updater.NewManager(t.TempDir())
	c := rig(t, &Opts{Repo: &fakeRepo{}, Downloads: mgr, Version: "1.0.0"})

	fsub, fstop := c.Fetches().Subscribe()
	defer fstop()
	rel := &updater.Release{Version: "2.0.0", AssetName: "whatsave.apk", AssetURL: srv.URL + "/whatsave.apk"}
	c.DownloadRelease(rel)
	var done updater.DownloadTask
	for {
		done = recv(t, fsub)
		if done.Status.IsFinished() {
			break
		}
	}
	if done.Status != updater.TaskDone {
		t.Fatalf("download ended %s: %s", done.Status, done.Err)
	}

	usub, ustop := c.Updates().Subscribe()
	defer ustop()
	c.GetUpdateState()
	got := recv(t, usub)
	if got.Downloading || got.Package != done.Path {
		t.Fatalf("expected the finished package path, got %+v", got)
	}
}

func TestGetUpdateStateCachedPackage(t *testing.T) {
	dir := t.TempDir()
	cache, err := updater.NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	pkg := filepath.Join(dir, "whatsave.apk")
	if err := os.WriteFile(pkg, []byte("cached"), 0644); err != nil {
		t.Fatal(err)
	}
	c := rig(t, &Opts{Repo: &fakeRepo{}, Cache: cache, Version: "1.0.0"})

	sub, stop := c.Updates().Subscribe()
	defer stop()
	c.GetUpdateState()
	got := recv(t, sub)
	if got.Package != pkg {
		t.Fatalf("expected cached package %s, got %+v", pkg, got)
	}
}

func TestGetLatestRelease(t *testing.T) {
	feed := &fakeFeed{rel: &updater.Release{Version: "v9.9.9", AssetName: "whatsave.apk"}}
	c := rig(t, &Opts{Repo: &fakeRepo{}, Releases: feed, Version: "1.0.0"})

	sub, stop := c.Updates().Subscribe()
	defer stop()
	c.GetLatestRelease()
	got := recv(t, sub)
	if got.Err != nil || got.Latest == nil || !got.Newer {
		t.Fatalf("check came back wrong: %+v", got)
	}
}

func TestGetLatestReleaseError(t *testing.T) {
	feed := &fakeFeed{err: errors.New("feed unreachable")}
	c := rig(t, &Opts{Repo: &fakeRepo{}, Releases: feed, Version: "1.0.0"})

	sub, stop := c.Updates().Subscribe()
	defer stop()
	c.GetLatestRelease()
	got := recv(t, sub)
	if got.Err == nil {
		t.Fatalf("feed error was swallowed: %+v", got)
	}
}
