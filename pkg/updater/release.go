// Package updater talks to the release feed, compares versions and
// fetches new builds.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/pkg/log"
)

const DefaultBaseURL = "https://api.github.com"

type Release struct {
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Notes       string    `json:"notes"`
	URL         string    `json:"url"`
	AssetName   string    `json:"asset_name"`
	AssetURL    string    `json:"asset_url"`
	AssetSize   int64     `json:"asset_size"`
	PublishedAt time.Time `json:"published_at"`
}

type Client struct {
	// BaseURL is swapped in tests.
	BaseURL string
	Owner   string
	Repo    string

	http *http.Client
}

func NewClient(owner, repo string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		Owner:   owner,
		Repo:    repo,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type ghRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []ghAsset `json:"assets"`
}

type ghAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// LatestRelease fetches the newest published release. Transient
// failures are retried with exponential backoff.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.BaseURL, c.Owner, c.Repo)
	var rel *Release
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("User-Agent", "whatsave")
		resp, err := c.http.Do(req)
		if err != nil {
			return errors.Wrap(err, "release request")
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(errors.Errorf("%s/%s has no releases", c.Owner, c.Repo))
		case resp.StatusCode >= 500:
			return errors.Errorf("release feed answered %d", resp.StatusCode)
		default:
			return backoff.Permanent(errors.Errorf("release feed answered %d", resp.StatusCode))
		}
		var gh ghRelease
		if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
			return backoff.Permanent(errors.Wrap(err, "decode release"))
		}
		rel = fromGithub(&gh)
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	log.Debugf("got latest release", "version", rel.Version, "asset", rel.AssetName)
	return rel, nil
}

func fromGithub(gh *ghRelease) *Release {
	r := &Release{
		Version:     gh.TagName,
		Name:        gh.Name,
		Notes:       gh.Body,
		URL:         gh.HTMLURL,
		PublishedAt: gh.PublishedAt,
	}
	if a := pickAsset(gh.Assets); a != nil {
		r.AssetName = a.Name
		r.AssetURL = a.BrowserDownloadURL
		r.AssetSize = a.Size
	}
	return r
}

// pickAsset prefers the installable package over checksums and
// sources.
func pickAsset(assets []ghAsset) *ghAsset {
	for i := range assets {
		if strings.HasSuffix(assets[i].Name, ".apk") {
			return &assets[i]
		}
	}
	for i := range assets {
		n := assets[i].Name
		if strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".sha256") || strings.HasSuffix(n, ".sig") {
			continue
		}
		return &assets[i]
	}
	return nil
}
