package updater

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/maxcodl/WhatSave/pkg/kv"
)

// UpdateCheck is what a version check leaves behind. InProgress is on
// while the feed is being asked, then the terminal record carries the
// outcome or the error. Downloading and Package describe a fetch that
// was already underway or already finished when the check ran.
type UpdateCheck struct {
	InProgress  bool
	Downloading bool
	Package     string
	Current     string
	Latest      *Release
	Newer       bool
	CheckedAt   time.Time
	Err         error
}

func (u UpdateCheck) Done() bool {
	return !u.InProgress
}

// IsNewer reports whether latest is ahead of current. Tags compare as
// semver when both parse, otherwise plain inequality decides.
func IsNewer(current, latest string) bool {
	cv, lv := canonical(current), canonical(latest)
	if semver.IsValid(cv) && semver.IsValid(lv) {
		return semver.Compare(lv, cv) > 0
	}
	return current != latest && latest != ""
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

const (
	kvBucket    = "update"
	kvLastCheck = "last_check"
)

// RememberCheck records now as the last completed check.
func RememberCheck(db kv.KV) error {
	val := strconv.FormatInt(time.Now().Unix(), 10)
	return db.Set(kvBucket, kvLastCheck, []byte(val))
}

// LastCheck returns when the feed was last asked, ok false when never.
func LastCheck(db kv.KV) (time.Time, bool) {
	raw, err := db.Get(kvBucket, kvLastCheck)
	if err != nil {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// ShouldCheck says whether the interval has passed since the last
// check.
func ShouldCheck(db kv.KV, interval time.Duration) bool {
	last, ok := LastCheck(db)
	if !ok {
		return true
	}
	return time.Since(last) >= interval
}
