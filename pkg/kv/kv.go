package kv

import "github.com/go-faster/errors"

// ErrKeyNotFound is returned by Get when the bucket or key is absent.
var ErrKeyNotFound = errors.New("key not found")

// KV is a tiny namespaced key value store. It backs app preferences
// (selected country, update bookkeeping) and tests.
type KV interface {
	Set(bucket, key string, val []byte) error
	Get(bucket, key string) ([]byte, error)
	Del(bucket, key string) error
	Close() error
}
