package updater

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/commons"
)

// Cache keeps fetched release packages in the app's private dir so an
// interrupted install can reuse them.
type Cache struct {
	Dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := commons.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Cache{Dir: dir}, nil
}

// Put copies a downloaded package into the cache after checking it
// looks like an installable file and not an error page.
func (c *Cache) Put(src string) (string, error) {
	if _, err := c.Verify(src); err != nil {
		return "", err
	}
	dst := filepath.Join(c.Dir, filepath.Base(src))
	if _, err := commons.CopyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Newest returns the most recently cached package, ok false when the
// cache is empty.
func (c *Cache) Newest() (string, bool) {
	ents, err := os.ReadDir(c.Dir)
	if err != nil {
		return "", false
	}
	var best string
	var bestAt time.Time
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil || fi.Size() == 0 {
			continue
		}
		if best == "" || fi.ModTime().After(bestAt) {
			best = filepath.Join(c.Dir, e.Name())
			bestAt = fi.ModTime()
		}
	}
	return best, best != ""
}

// Locate returns the cached copy of name when present.
func (c *Cache) Locate(name string) (string, bool) {
	path := filepath.Join(c.Dir, name)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() || fi.Size() == 0 {
		return "", false
	}
	return path, true
}

// Verify sniffs the package type. Installables are zip based (apk)
// or raw executables, anything textual is a failed download.
func (c *Cache) Verify(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "sniff %s", path)
	}
	switch {
	case mt.Is("application/zip"),
		mt.Is("application/jar"),
		mt.Is("application/vnd.android.package-archive"),
		mt.Is("application/x-executable"),
		mt.Is("application/x-elf"),
		mt.Is("application/x-mach-binary"),
		mt.Is("application/vnd.microsoft.portable-executable"),
		mt.Is("application/gzip"),
		mt.Is("application/x-xz"):
		return mt.String(), nil
	}
	return mt.String(), errors.Errorf("%s is %s, not an installable package", filepath.Base(path), mt.String())
}

// Clear drops every cached package.
func (c *Cache) Clear() error {
	ents, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.Dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
