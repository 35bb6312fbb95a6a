package storage

import (
	"os"
	"testing"
)

func TestMountFor(t *testing.T) {
	mounts := []string{"/", "/data", "/data/media", "/home"}
	tests := []struct {
		path string
		want int
	}{
		{"/data/media/0/WhatsApp", 2},
		{"/data/app", 1},
		{"/database", 0},
		{"/home/user", 3},
		{"/data", 1},
		{"/", 0},
	}
	for _, tt := range tests {
		if got := mountFor(mounts, tt.path); got != tt.want {
			t.Errorf("mountFor(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestMountForNoMatch(t *testing.T) {
	if got := mountFor([]string{"/mnt/sd"}, "/home/user"); got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}

func TestVolumes(t *testing.T) {
	vols, err := Volumes(os.TempDir())
	if err != nil {
		t.Skipf("no partition info here: %v", err)
	}
	if len(vols) == 0 {
		t.Skip("no mounted volumes visible")
	}
	primaries := 0
	for _, v := range vols {
		if v.Mount == "" {
			t.Errorf("volume without mount: %+v", v)
		}
		if v.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		t.Errorf("%d primary volumes, want at most 1", primaries)
	}
}
