package commons

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaKind is the closed set of status media kinds the app handles.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

var (
	IMG_SUFFIX = []string{".jpg", ".jpeg", ".png"}
	VID_SUFFIX = []string{".mp4", ".3gp"}
)

// SaveDirName is the subdirectory WhatSave owns under the public media dirs.
const SaveDirName = "WhatSave"

func AllKinds() []MediaKind {
	return []MediaKind{KindImage, KindVideo}
}

func (k MediaKind) String() string {
	return string(k)
}

func (k MediaKind) DisplayName() string {
	switch k {
	case KindVideo:
		return "Video"
	default:
		return "Image"
	}
}

// Ext is the extension saved copies are written with.
func (k MediaKind) Ext() string {
	if k == KindVideo {
		return ".mp4"
	}
	return ".jpg"
}

func (k MediaKind) MimeType() string {
	if k == KindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}

// ContentURI is the media store collection this kind is inserted into.
func (k MediaKind) ContentURI() string {
	if k == KindVideo {
		return "content://media/external/video/media"
	}
	return "content://media/external/images/media"
}

// RelativePath is the save destination relative to the public storage root.
// Only meaningful for media-store backed (scoped) saves; callers on the legacy
// layout must use Dir instead.
func (k MediaKind) RelativePath() string {
	if k == KindVideo {
		return filepath.Join("Movies", SaveDirName)
	}
	return filepath.Join("Pictures", SaveDirName)
}

// Dir is the absolute save directory under the given public storage root.
func (k MediaKind) Dir(root string) string {
	return filepath.Join(root, k.RelativePath())
}

// DefaultSaveName names a saved copy when the user gives no name. idx
// disambiguates statuses saved in the same batch.
func (k MediaKind) DefaultSaveName(idx int) string {
	prefix := "IMG"
	if k == KindVideo {
		prefix = "VID"
	}
	return fmt.Sprintf("Status_%s_%04d%s", prefix, idx, k.Ext())
}

func (k MediaKind) Suffixes() []string {
	if k == KindVideo {
		return VID_SUFFIX
	}
	return IMG_SUFFIX
}

// Matches reports whether name has one of the kind's suffixes.
func (k MediaKind) Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, suff := range k.Suffixes() {
		if strings.HasSuffix(lower, suff) {
			return true
		}
	}
	return false
}

// KindForFile classifies a file name by suffix.
func KindForFile(name string) (MediaKind, bool) {
	for _, k := range AllKinds() {
		if k.Matches(name) {
			return k, true
		}
	}
	return "", false
}

// ParseKind parses user input like "image", "img", "video", "vid".
func ParseKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "img", "imgs":
		return KindImage, nil
	case "video", "vid", "vids":
		return KindVideo, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}
