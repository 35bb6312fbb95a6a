package kv

import (
	"sync"

	"github.com/go-faster/errors"
)

type InMemDb struct {
	l       sync.Mutex
	buckets map[string]map[string][]byte
}

func GetInMemoryKv() *InMemDb {
	return &InMemDb{
		buckets: make(map[string]map[string][]byte),
	}
}

func (db *InMemDb) Set(bucket, key string, val []byte) error {
	db.l.Lock()
	defer db.l.Unlock()
	b, ok := db.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		db.buckets[bucket] = b
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	b[key] = cp
	return nil
}

func (db *InMemDb) Get(bucket, key string) ([]byte, error) {
	db.l.Lock()
	defer db.l.Unlock()
	b, ok := db.buckets[bucket]
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "bucket %s", bucket)
	}
	v, ok := b[key]
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "key %s", key)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (db *InMemDb) Del(bucket, key string) error {
	db.l.Lock()
	defer db.l.Unlock()
	if b, ok := db.buckets[bucket]; ok {
		delete(b, key)
	}
	return nil
}

func (db *InMemDb) Close() error {
	return nil
}
