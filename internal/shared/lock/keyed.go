// Package lock provides mutual exclusion keyed by an arbitrary string.
//
// The ingestion engine assumes at most one writer per (symbol, resolution)
// at a time; concurrent passes on the same key would race on the watermark
// query. Callers inject a Keyed implementation rather than relying on that
// assumption silently. KeyedMutex covers a single process; a distributed
// scheduler needs a lease-based implementation behind the same interface.
package lock

import "sync"

// Keyed serializes work per key. Lock blocks until the key is free and
// returns the release function.
type Keyed interface {
	Lock(key string) (release func())
}

type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ Keyed = (*KeyedMutex)(nil)

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
