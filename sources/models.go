package sources

import (
	"time"
)

type SourceType string

const (
	SOURCE_TYPE_WHATSAPP SourceType = "SOURCE_TYPE_WHATSAPP"
)

type ScanOpts struct {
	// Clients restricts the scan to these client names, empty means
	// every installed one.
	Clients []string
	// Filter is an expression over name, client, size, age_hours and
	// video. Items failing it are dropped.
	Filter string
	Limit  int
}

type WatchOpts struct {
	Clients  []string
	Debounce time.Duration
	Poll     time.Duration
}

type WatchEvent struct {
	Client string
	Path   string
	At     time.Time
}
