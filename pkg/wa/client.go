// Package wa knows where the messenger apps keep their status folders
// and how to build direct chat links.
package wa

import (
	"os"
	"path/filepath"

	"github.com/maxcodl/WhatSave/pkg/log"
)

// Client describes one messenger app whose statuses we can read.
type Client struct {
	Name    string `json:"name"`
	Package string `json:"package"`
	// DirName is the folder the app creates under shared storage.
	DirName string `json:"dir_name"`
}

var knownClients = []Client{
	{Name: "WhatsApp", Package: "com.whatsapp", DirName: "WhatsApp"},
	{Name: "WhatsApp Business", Package: "com.whatsapp.w4b", DirName: "WhatsApp Business"},
	{Name: "GBWhatsApp", Package: "com.gbwhatsapp", DirName: "GBWhatsApp"},
	{Name: "FMWhatsApp", Package: "com.fmwhatsapp", DirName: "FMWhatsApp"},
	{Name: "YoWhatsApp", Package: "com.yowhatsapp", DirName: "YoWhatsApp"},
}

// KnownClients returns every messenger we know how to scan.
func KnownClients() []Client {
	out := make([]Client, len(knownClients))
	copy(out, knownClients)
	return out
}

// ByName finds a known client, empty ok when unknown.
func ByName(name string) (Client, bool) {
	for _, c := range knownClients {
		if c.Name == name || c.DirName == name {
			return c, true
		}
	}
	return Client{}, false
}

// StatusDirs lists the folders where this client may keep statuses
// under base. Newer app builds use the scoped layout, older ones the
// legacy layout. Both are returned, existing or not.
func (c Client) StatusDirs(base string) []string {
	return []string{
		filepath.Join(base, "Android", "media", c.Package, c.DirName, "Media", ".Statuses"),
		filepath.Join(base, c.DirName, "Media", ".Statuses"),
	}
}

// StatusDir returns the first status folder that actually exists, or
// empty when the client left no trace under base.
func (c Client) StatusDir(base string) string {
	for _, dir := range c.StatusDirs(base) {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
	}
	return ""
}

// Installed filters the known clients down to those with a status
// folder under base.
func Installed(base string) []Client {
	var out []Client
	for _, c := range knownClients {
		if dir := c.StatusDir(base); dir != "" {
			log.Debugf("found client", "name", c.Name, "dir", dir)
			out = append(out, c)
		}
	}
	return out
}
