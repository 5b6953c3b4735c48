package service

import (
	"sync"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

const defaultContentType = "application/octet-stream"

// sniffFile reports the detected type of a file from its magic bytes.
// Unrecognised content yields filetype.Unknown.
func sniffFile(path string) types.Type {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return filetype.Unknown
	}
	return kind
}

func sniffMIME(path string) string {
	kind := sniffFile(path)
	if kind == filetype.Unknown || kind.MIME.Value == "" {
		return defaultContentType
	}
	return kind.MIME.Value
}

// keyedMutex serialises work per key while letting different keys proceed
// in parallel. Entries are dropped once nobody holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
