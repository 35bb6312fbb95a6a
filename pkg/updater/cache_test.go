package updater

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("classes.dex")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("dex")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCachePutAndLocate(t *testing.T) {
	work := t.TempDir()
	cache, err := NewCache(filepath.Join(work, "cache"))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	src := filepath.Join(work, "app.apk")
	writeZip(t, src)

	dst, err := cache.Put(src)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := cache.Locate("app.apk")
	if !ok || got != dst {
		t.Errorf("locate = %q, %v", got, ok)
	}
	if _, ok := cache.Locate("other.apk"); ok {
		t.Error("located a package never cached")
	}
}

func TestCacheRejectsTextFile(t *testing.T) {
	work := t.TempDir()
	cache, err := NewCache(filepath.Join(work, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(work, "error.apk")
	if err := os.WriteFile(src, []byte("<html>not found</html>"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Put(src); err == nil {
		t.Error("html error page cached as package")
	}
}

func TestCacheClear(t *testing.T) {
	work := t.TempDir()
	cache, err := NewCache(filepath.Join(work, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(work, "app.apk")
	writeZip(t, src)
	if _, err := cache.Put(src); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := cache.Locate("app.apk"); ok {
		t.Error("cache not cleared")
	}
}
