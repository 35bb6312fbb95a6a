package kv

import (
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/maxcodl/WhatSave/commons"
)

// BoltDb persists preferences across runs. One file, one bucket per namespace.
type BoltDb struct {
	db *bolt.DB
}

func NewBoltKv(path string) (*BoltDb, error) {
	if err := commons.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, errors.Wrap(err, "create kv dir")
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open kv db")
	}
	return &BoltDb{db: db}, nil
}

func (b *BoltDb) Set(bucket, key string, val []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return bk.Put([]byte(key), val)
	})
}

func (b *BoltDb) Get(bucket, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return errors.Wrapf(ErrKeyNotFound, "bucket %s", bucket)
		}
		v := bk.Get([]byte(key))
		if v == nil {
			return errors.Wrapf(ErrKeyNotFound, "key %s", key)
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	return out, err
}

func (b *BoltDb) Del(bucket, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return nil
		}
		return bk.Delete([]byte(key))
	})
}

func (b *BoltDb) Close() error {
	return b.db.Close()
}
