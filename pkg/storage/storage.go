// Package storage reports the mounted volumes of the device so the
// save destination can be picked and checked for space.
package storage

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/maxcodl/WhatSave/pkg/log"
)

type Volume struct {
	Device  string  `json:"device"`
	Mount   string  `json:"mount"`
	Fstype  string  `json:"fstype"`
	Total   uint64  `json:"total"`
	Free    uint64  `json:"free"`
	Used    uint64  `json:"used"`
	UsedPct float64 `json:"used_pct"`
	// Primary marks the volume holding the messenger folders.
	Primary bool `json:"primary"`
}

// Volumes lists mounted filesystems with usage. base decides which
// one gets the primary mark.
func Volumes(base string) ([]Volume, error) {
	parts, err := disk.Partitions(false)
	if err != nil {
		return nil, errors.Wrap(err, "list partitions")
	}
	var vols []Volume
	for _, p := range parts {
		u, err := disk.Usage(p.Mountpoint)
		if err != nil {
			log.Debugf("skipping mount", "mount", p.Mountpoint, "err", err)
			continue
		}
		vols = append(vols, Volume{
			Device:  p.Device,
			Mount:   p.Mountpoint,
			Fstype:  p.Fstype,
			Total:   u.Total,
			Free:    u.Free,
			Used:    u.Used,
			UsedPct: u.UsedPercent,
		})
	}
	sort.Slice(vols, func(i, j int) bool { return vols[i].Mount < vols[j].Mount })
	if i := mountFor(mounts(vols), base); i >= 0 {
		vols[i].Primary = true
	}
	return vols, nil
}

// FreeAt returns the free bytes on the volume holding path.
func FreeAt(path string) (uint64, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, errors.Wrapf(err, "usage %s", path)
	}
	return u.Free, nil
}

func mounts(vols []Volume) []string {
	out := make([]string, len(vols))
	for i, v := range vols {
		out[i] = v.Mount
	}
	return out
}

// mountFor picks the mount with the longest prefix match for path,
// -1 when nothing matches. The match respects path boundaries so
// /data never claims /database.
func mountFor(mounts []string, path string) int {
	best, bestLen := -1, -1
	for i, m := range mounts {
		clean := strings.TrimSuffix(m, "/")
		if clean == "" {
			clean = "/"
		}
		ok := path == clean || clean == "/" || strings.HasPrefix(path, clean+"/")
		if !ok {
			continue
		}
		if len(clean) > bestLen {
			best, bestLen = i, len(clean)
		}
	}
	return best
}
