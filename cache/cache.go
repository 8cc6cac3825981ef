// Package cache shares large read-only objects, such as parsed knowledge
// bases, between every solver in a process. Each key is loaded once; a
// failed load is forgotten so the next caller tries again.
package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/foresight/config"
)

// Loader builds the object stored under key.
type Loader func(cfg *config.Config, key string) (any, error)

type entry struct {
	ready chan struct{}
	obj   any
	err   error
}

type store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var objects = &store{entries: make(map[string]*entry)}

// Load returns the object stored under key, running load on the first
// request. Concurrent callers for the same key wait for that one load;
// different keys load independently.
func Load(cfg *config.Config, key string, load Loader) (any, error) {
	objects.mu.Lock()
	if e, ok := objects.entries[key]; ok {
		objects.mu.Unlock()
		<-e.ready
		log.Debug().Str("key", key).Bool("ok", e.err == nil).Msg("cache-hit")
		return e.obj, e.err
	}
	e := &entry{ready: make(chan struct{})}
	objects.entries[key] = e
	objects.mu.Unlock()

	log.Debug().Str("key", key).Msg("cache-load")
	e.obj, e.err = load(cfg, key)
	if e.err != nil {
		objects.mu.Lock()
		if objects.entries[key] == e {
			delete(objects.entries, key)
		}
		objects.mu.Unlock()
	}
	close(e.ready)
	return e.obj, e.err
}

// Evict forgets key so the next Load runs its loader again.
func Evict(key string) {
	objects.mu.Lock()
	defer objects.mu.Unlock()
	delete(objects.entries, key)
}
