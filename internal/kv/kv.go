// Package kv holds the durable key-value backends the store commits to.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("kv: backend closed")

// Backend is a byte-oriented durable key-value store.
type Backend interface {
	// Get returns the value stored under key. A missing key reports
	// found=false and no error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry is one write in a batch. A nil Value deletes the key.
type Entry struct {
	Key   string
	Value []byte
}

// Batcher is implemented by backends that can apply several writes
// atomically.
type Batcher interface {
	PutBatch(ctx context.Context, entries []Entry) error
}

// WriteAll applies entries through PutBatch when the backend supports it
// and one by one otherwise. The fallback is not atomic.
func WriteAll(ctx context.Context, b Backend, entries []Entry) error {
	if batcher, ok := b.(Batcher); ok {
		return batcher.PutBatch(ctx, entries)
	}
	for _, e := range entries {
		var err error
		if e.Value == nil {
			err = b.Delete(ctx, e.Key)
		} else {
			err = b.Put(ctx, e.Key, e.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
