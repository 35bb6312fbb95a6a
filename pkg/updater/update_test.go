package updater

import (
	"testing"
	"time"

	"github.com/maxcodl/WhatSave/pkg/kv"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{"1.2.0", "1.3.0", true},
		{"v1.2.0", "v1.2.1", true},
		{"1.2.0", "v1.2.0", false},
		{"2.0.0", "1.9.9", false},
		{"1.2.0", "1.2.0", false},
		{"dev", "v1.0.0", true},
		{"1.0.0", "", false},
		{"v1.0.0-rc1", "v1.0.0", true},
	}
	for _, tt := range tests {
		if got := IsNewer(tt.current, tt.latest); got != tt.want {
			t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestCheckBookkeeping(t *testing.T) {
	db := kv.GetInMemoryKv()

	if _, ok := LastCheck(db); ok {
		t.Error("fresh store claims a last check")
	}
	if !ShouldCheck(db, time.Hour) {
		t.Error("fresh store should want a check")
	}

	if err := RememberCheck(db); err != nil {
		t.Fatalf("remember: %v", err)
	}
	last, ok := LastCheck(db)
	if !ok {
		t.Fatal("check not remembered")
	}
	if time.Since(last) > time.Minute {
		t.Errorf("last check suspiciously old: %v", last)
	}
	if ShouldCheck(db, time.Hour) {
		t.Error("should not want another check straight away")
	}
	if !ShouldCheck(db, 0) {
		t.Error("zero interval should always want a check")
	}
}
