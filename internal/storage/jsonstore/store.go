// Package jsonstore implements storage.Storage on top of a single JSON
// document with in-memory secondary indexes, an LRU read cache and an
// optional deferred autosave.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/types"
)

// Defaults for Options.
const (
	DefaultAutosaveDelay = 1 * time.Second
	DefaultCacheSize     = 1000
	resultCacheSize      = 64
)

// Options configures a Store.
type Options struct {
	Path          string
	Autosave      bool
	AutosaveDelay time.Duration
	CacheSize     int
	Logger        *slog.Logger
}

// Store is a JSON-file backed tag store. All methods are safe for
// concurrent use within one process. Two processes writing the same file
// race; the last write wins.
type Store struct {
	path string
	log  *slog.Logger
	now  func() time.Time

	mu     sync.RWMutex
	db     *types.TagDatabase
	loaded bool
	dirty  bool
	gen    uint64 // bumped on every mutation; keys the result cache

	cache   *lru.Cache[string, *types.TagEntry]
	results *lru.Cache[string, cachedSearch]

	loads  singleflight.Group
	saveMu sync.Mutex
	auto   *autosaver

	readFn  func(path string) ([]byte, error)
	writeFn func(path string, data []byte) error

	// counters read by tests
	diskReads  atomic.Int64
	resultHits atomic.Int64
	resultMiss atomic.Int64
}

var _ storage.Storage = (*Store)(nil)

// New creates a Store for opts.Path. Nothing is read until the first
// operation or an explicit Load.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("jsonstore: path is required")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *types.TagEntry](size)
	if err != nil {
		return nil, fmt.Errorf("jsonstore: create cache: %w", err)
	}
	results, err := lru.New[string, cachedSearch](resultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("jsonstore: create result cache: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		path:    opts.Path,
		log:     log.With("component", "jsonstore"),
		now:     time.Now,
		db:      types.NewTagDatabase(),
		cache:   cache,
		results: results,
	}
	s.readFn = os.ReadFile
	s.writeFn = writeFileAtomic
	if opts.Autosave {
		delay := opts.AutosaveDelay
		if delay <= 0 {
			delay = DefaultAutosaveDelay
		}
		s.auto = newAutosaver(delay, s.autosave)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file, replacing the in-memory state. A missing file
// yields an empty database. Concurrent calls share one read.
func (s *Store) Load(ctx context.Context) error {
	ch := s.loads.DoChan("load", func() (any, error) {
		return nil, s.load()
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

func (s *Store) load() error {
	db, err := s.readDatabase()
	if err != nil {
		return err
	}
	db.Indexes = buildIndexes(db.Tags)

	s.mu.Lock()
	s.db = db
	s.loaded = true
	s.dirty = false
	s.gen++
	s.cache.Purge()
	s.results.Purge()
	s.mu.Unlock()

	s.log.Debug("loaded database", "path", s.path, "tags", len(db.Tags))
	return nil
}

func (s *Store) readDatabase() (*types.TagDatabase, error) {
	s.diskReads.Add(1)

	data, err := s.readFn(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.NewTagDatabase(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var db types.TagDatabase
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", storage.ErrInvalidFormat, s.path, err)
	}
	if db.Version == "" {
		db.Version = types.SchemaVersion
	}
	if db.Tags == nil {
		db.Tags = make(map[string]*types.TagEntry)
	}
	for id, e := range db.Tags {
		if e == nil {
			return nil, fmt.Errorf("%w: %s: tag %s is null", storage.ErrInvalidFormat, s.path, id)
		}
	}
	return &db, nil
}

// ensureLoaded performs the first Load lazily.
func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Load(ctx)
}

// Save recomputes metadata, rebuilds every index and atomically overwrites
// the backing file.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.db.Indexes = buildIndexes(s.db.Tags)
	s.db.Metadata = types.DatabaseMetadata{
		TotalTags:   len(s.db.Tags),
		LastUpdated: s.now().UTC(),
	}
	data, err := json.MarshalIndent(s.db, "", "  ")
	wasDirty := s.dirty
	s.dirty = false
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode database: %w", err)
	}

	if err := s.write(ctx, append(data, '\n')); err != nil {
		s.mu.Lock()
		s.dirty = s.dirty || wasDirty
		s.mu.Unlock()
		return err
	}
	s.log.Debug("saved database", "path", s.path, "bytes", len(data))
	return nil
}

// Close stops the autosave timer and flushes unsaved changes.
func (s *Store) Close(ctx context.Context) error {
	if s.auto != nil {
		s.auto.stop()
	}
	s.mu.RLock()
	dirty := s.dirty
	s.mu.RUnlock()
	if dirty {
		return s.Save(ctx)
	}
	return nil
}

// markDirty must be called with s.mu held.
func (s *Store) markDirty() {
	s.dirty = true
	s.gen++
	if s.auto != nil {
		s.auto.mark()
	}
}

func (s *Store) autosave() {
	if err := s.Save(context.Background()); err != nil {
		s.log.Error("autosave failed", "path", s.path, "error", err)
	}
}
