package torch

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// coffer is a static asset manager that uses runtime memory to reduce disk
// I/O pressure.
type coffer struct {
	torch   *Torch
	once    *sync.Once
	assets  *sync.Map
	cache   *fastcache.Cache
	watcher *fsnotify.Watcher
}

// newCoffer returns a new instance of the `coffer` with the t.
func newCoffer(t *Torch) *coffer {
	c := &coffer{
		torch:  t,
		once:   &sync.Once{},
		assets: &sync.Map{},
	}

	var err error
	if c.watcher, err = fsnotify.NewWatcher(); err != nil {
		panic(fmt.Errorf(
			"torch: failed to build coffer watcher: %v",
			err,
		))
	}

	go func() {
		for {
			select {
			case e := <-c.watcher.Events:
				if ai, ok := c.assets.Load(e.Name); ok {
					a := ai.(*asset)
					c.assets.Delete(a.name)
					c.cache.Del(a.key[:])
				}
			case err := <-c.watcher.Errors:
				if t.CofferEnabled {
					t.logger.Errorf(
						"torch: coffer watcher "+
							"error: %v",
						err,
					)
				}
			}
		}
	}()

	return c
}

// asset returns an `asset` from the c for the name. It returns nil when the
// name is not a cacheable regular file.
func (c *coffer) asset(name string) (*asset, error) {
	c.once.Do(func() {
		c.cache = fastcache.New(c.torch.CofferMaxMemoryBytes)
	})

	if ai, ok := c.assets.Load(name); ok {
		return ai.(*asset), nil
	}

	fi, err := os.Stat(name)
	if err != nil {
		return nil, err
	} else if fi.IsDir() {
		return nil, nil
	}

	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	if err := c.watcher.Add(name); err != nil {
		return nil, err
	}

	a := &asset{
		coffer:  c,
		name:    name,
		modTime: fi.ModTime(),
	}

	binary.BigEndian.PutUint64(a.key[:], xxhash.Sum64String(name))

	c.cache.Set(a.key[:], b)
	c.assets.Store(name, a)

	return a, nil
}

// asset is a static asset file held by a `coffer`.
type asset struct {
	coffer  *coffer
	name    string
	modTime time.Time
	key     [8]byte
}

// content returns the content of the a. It returns nil when the content has
// been evicted from the cache.
func (a *asset) content() []byte {
	c := a.coffer.cache.Get(nil, a.key[:])
	if len(c) == 0 {
		a.coffer.assets.Delete(a.name)
		a.coffer.cache.Del(a.key[:])
		return nil
	}

	return c
}
