package commons

import (
	"time"
)

// StatusItem is one discovered status media file.
type StatusItem struct {
	Name    string    // file name, unique per client dir
	Client  string    // display name of the owning client
	Path    string    // absolute path of the source file
	Kind    MediaKind
	Size    int64
	ModTime time.Time
	URI     string // content uri once the saved copy is indexed
	Saved   bool   // a saved copy already exists
}

// Key identifies an item across scans.
func (i StatusItem) Key() string {
	return i.Client + "/" + i.Name
}

// AgeHours is exposed to list filter expressions.
func (i StatusItem) AgeHours() float64 {
	return time.Since(i.ModTime).Hours()
}
