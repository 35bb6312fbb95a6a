package updater

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func serveRelease(t *testing.T, rel ghRelease) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/maxcodl/WhatSave/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(rel); err != nil {
			t.Error(err)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestRelease(t *testing.T) {
	srv := serveRelease(t, ghRelease{
		TagName: "v1.4.0",
		Name:    "1.4.0",
		Body:    "fixes",
		HTMLURL: "https://example.com/rel",
		Assets: []ghAsset{
			{Name: "checksums.sha256", Size: 100, BrowserDownloadURL: "https://example.com/sums"},
			{Name: "whatsave-1.4.0.apk", Size: 5000, BrowserDownloadURL: "https://example.com/apk"},
		},
	})

	c := NewClient("maxcodl", "WhatSave")
	c.BaseURL = srv.URL
	rel, err := c.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if rel.Version != "v1.4.0" {
		t.Errorf("version = %q", rel.Version)
	}
	if rel.AssetName != "whatsave-1.4.0.apk" || rel.AssetSize != 5000 {
		t.Errorf("asset = %q size %d", rel.AssetName, rel.AssetSize)
	}
}

func TestLatestReleaseNoReleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("maxcodl", "WhatSave")
	c.BaseURL = srv.URL
	if _, err := c.LatestRelease(context.Background()); err == nil {
		t.Error("expected error for missing releases")
	}
}

func TestLatestReleaseRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(ghRelease{TagName: "v2.0.0"})
	}))
	defer srv.Close()

	c := NewClient("maxcodl", "WhatSave")
	c.BaseURL = srv.URL
	rel, err := c.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if rel.Version != "v2.0.0" {
		t.Errorf("version = %q", rel.Version)
	}
	if atomic.LoadInt32(&calls) < 2 {
		t.Errorf("server hit %d times, want a retry", calls)
	}
}

func TestPickAsset(t *testing.T) {
	got := pickAsset([]ghAsset{
		{Name: "notes.txt"},
		{Name: "build.tar.gz"},
	})
	if got == nil || got.Name != "build.tar.gz" {
		t.Errorf("picked %+v", got)
	}
	if pickAsset(nil) != nil {
		t.Error("picked asset from nothing")
	}
}
