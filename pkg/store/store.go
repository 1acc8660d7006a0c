package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists named collections as whole JSON documents under a single
// directory. There is no row-level primitive: every mutation rewrites the
// entire document. Writers to one collection are serialized by a
// per-collection mutex, so concurrent load-modify-save cycles cannot lose
// updates; writers to different collections do not block each other.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates the data directory if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		dir:   dir,
		locks: map[string]*sync.Mutex{},
	}, nil
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[name]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[name] = lock
	return lock
}

// Collection is typed access to one whole-document collection.
type Collection[T any] struct {
	store *Store
	name  string
	empty func() T
}

// NewCollection binds a typed collection to the store. The empty constructor
// supplies the document returned when the file does not exist yet.
func NewCollection[T any](s *Store, name string, empty func() T) *Collection[T] {
	return &Collection[T]{store: s, name: name, empty: empty}
}

// Name returns the collection's logical name.
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) path() string {
	return filepath.Join(c.store.dir, c.name+".json")
}

// Load reads the whole document. A missing file yields the collection's
// declared empty default. Reads do not take the collection lock: saves go
// through an atomic rename, so a read always observes a complete document.
func (c *Collection[T]) Load(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		return c.empty(), err
	}
	return c.load()
}

func (c *Collection[T]) load() (T, error) {
	raw, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return c.empty(), nil
		}
		return c.empty(), fmt.Errorf("read collection %s: %w", c.name, err)
	}

	doc := c.empty()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return c.empty(), fmt.Errorf("decode collection %s: %w", c.name, err)
	}
	return doc, nil
}

// Save rewrites the whole document under the collection lock.
func (c *Collection[T]) Save(ctx context.Context, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := c.store.lockFor(c.name)
	lock.Lock()
	defer lock.Unlock()
	return c.save(doc)
}

func (c *Collection[T]) save(doc T) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c.name, err)
	}

	tmp, err := os.CreateTemp(c.store.dir, c.name+"-*.json")
	if err != nil {
		return fmt.Errorf("stage collection %s: %w", c.name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write collection %s: %w", c.name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("flush collection %s: %w", c.name, err)
	}
	if err := os.Rename(tmpName, c.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace collection %s: %w", c.name, err)
	}
	return nil
}

// Update runs one load-modify-save cycle under the collection lock and
// returns the saved document. If apply returns an error the document is left
// untouched and the error is passed through unchanged.
func (c *Collection[T]) Update(ctx context.Context, apply func(T) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	lock := c.store.lockFor(c.name)
	lock.Lock()
	defer lock.Unlock()

	doc, err := c.load()
	if err != nil {
		return zero, err
	}
	next, err := apply(doc)
	if err != nil {
		return zero, err
	}
	if err := c.save(next); err != nil {
		return zero, err
	}
	return next, nil
}

// Bootstrap materializes the empty default when the file is absent so that a
// fresh deployment starts with every collection present on disk.
func (c *Collection[T]) Bootstrap(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := c.store.lockFor(c.name)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(c.path()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat collection %s: %w", c.name, err)
	}
	return c.save(c.empty())
}
