package commons

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// CopyFile copies src to dst, creating parent dirs. A partial copy is removed
// before the error is returned, there is no resume.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrap(err, "open src")
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return 0, errors.Wrap(err, "create dst dir")
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "create dst")
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return n, errors.Wrap(err, "copy")
	}
	return n, nil
}

func UniqueStrings(input []string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, val := range input {
		if _, exists := seen[val]; !exists {
			seen[val] = struct{}{}
			result = append(result, val)
		}
	}
	return result
}
