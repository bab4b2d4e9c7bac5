// Package asset is the path-keyed, type-tagged cache of decoded resources.
//
// Load returns a handle at once; decoding runs on the job scheduler when one
// is attached, otherwise on a fresh goroutine. At most one decode runs per
// (path, kind) key. A Get on a handle whose decode has not started yet runs
// it on the calling goroutine, so a job waiting on an asset can never
// deadlock a saturated pool.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"

	"github.com/novaengine/nova/internal/core/errs"
)

// Submitter schedules background work. *job.Scheduler satisfies it.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error) error
}

type cacheKey struct {
	path string
	kind Kind
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries  int    `json:"entries"`
	InFlight int    `json:"in_flight"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Decodes  uint64 `json:"decodes"`
	Failures uint64 `json:"failures"`
}

// Cache is safe for concurrent use from the main goroutine and job workers.
// Lookups and inserts synchronise per key; no lock is held while decoding.
type Cache struct {
	fsys  fs.FS
	codec Codec
	jobs  atomic.Pointer[submitterBox]
	log   *zap.Logger
	reads singleflight.Group

	// life is held shared by Load and exclusively by Close, so no decode is
	// counted in inflight once Close has started waiting.
	life   sync.RWMutex
	closed bool

	entries  sync.Map // cacheKey -> *Asset[T]
	inflight sync.WaitGroup
	pending  atomic.Int64

	hits, misses, decodes, failures atomic.Uint64
}

type submitterBox struct{ s Submitter }

// Option configures a Cache.
type Option func(*Cache)

// WithFS reads assets from fsys instead of the root directory.
func WithFS(fsys fs.FS) Option {
	return func(c *Cache) { c.fsys = fsys }
}

// WithCodec replaces the default extension-based codec.
func WithCodec(codec Codec) Option {
	return func(c *Cache) { c.codec = codec }
}

// WithSubmitter decodes through s instead of ad-hoc goroutines.
func WithSubmitter(s Submitter) Option {
	return func(c *Cache) { c.SetSubmitter(s) }
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, log *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		fsys:  os.DirFS(dir),
		codec: NewExtCodec(),
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSubmitter attaches (or, with nil, detaches) the decode scheduler.
func (c *Cache) SetSubmitter(s Submitter) {
	if s == nil {
		c.jobs.Store(nil)
		return
	}
	c.jobs.Store(&submitterBox{s: s})
}

// Resolve canonicalises p into the cache's path identity: NFC-normalised,
// slash separated, cleaned and relative to the root. Paths that escape the
// root are rejected.
func Resolve(p string) (string, error) {
	p = norm.NFC.String(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("invalid asset path %q", p)
	}
	clean := path.Clean(p)
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("asset path %q escapes the asset root", p)
	}
	return clean, nil
}

// Load returns the shared Asset for (p, T). The first call for a key starts
// the decode; later and concurrent calls return the same handle.
// A path that does not exist fails here; decode failures and kind
// mismatches surface from Asset.Get.
func Load[T Data](c *Cache, p string) (*Asset[T], error) {
	const op = "asset.load"
	c.life.RLock()
	defer c.life.RUnlock()
	if c.closed {
		return nil, errs.AssetLoad(op, nil, "cache is closed")
	}
	var zero T
	kind := zero.Kind()
	resolved, err := Resolve(p)
	if err != nil {
		return nil, errs.AssetLoad(op, err, "resolve")
	}
	key := cacheKey{path: resolved, kind: kind}

	if v, ok := c.entries.Load(key); ok {
		return cached[T](c, v, resolved, kind)
	}
	if _, err := fs.Stat(c.fsys, resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.AssetLoad(op, nil, "%s not found", resolved)
		}
		return nil, errs.AssetLoad(op, err, "stat %s", resolved)
	}

	a := &Asset[T]{path: resolved, kind: kind}
	a.e = newEntry(func() (Data, error) { return c.decode(resolved, kind) }, c.hold)
	v, loaded := c.entries.LoadOrStore(key, a)
	if loaded {
		return cached[T](c, v, resolved, kind)
	}
	c.misses.Add(1)
	lookupsTotal.WithLabelValues("miss").Inc()
	c.log.Debug("asset cache miss", zap.String("path", resolved), zap.Stringer("kind", kind))
	c.schedule(a.e, resolved)
	return a, nil
}

func cached[T Data](c *Cache, v any, resolved string, kind Kind) (*Asset[T], error) {
	a, ok := v.(*Asset[T])
	if !ok {
		return nil, errs.AssetLoad("asset.load", nil, "%s is cached as %T for kind %s", resolved, v, kind)
	}
	c.hits.Add(1)
	lookupsTotal.WithLabelValues("hit").Inc()
	return a, nil
}

// LoadKind loads p with the type chosen at run time (scripts, manifests).
func LoadKind(c *Cache, p string, kind Kind) (Handle, error) {
	switch kind {
	case KindAudio:
		return Load[AudioData](c, p)
	case KindSprite:
		return Load[SpriteData](c, p)
	}
	return nil, errs.AssetLoad("asset.load", nil, "unknown asset kind %s", kind)
}

// hold counts a decode run inline by Get or Wait so Close waits for it.
// Once the cache is closed nothing is counted.
func (c *Cache) hold() (release func()) {
	c.life.RLock()
	defer c.life.RUnlock()
	if c.closed {
		return func() {}
	}
	c.inflight.Add(1)
	return c.inflight.Done
}

// schedule queues the decode of e. The caller holds life shared.
func (c *Cache) schedule(e *entry, resolved string) {
	c.inflight.Add(1)
	c.pending.Add(1)
	task := func(context.Context) error {
		defer c.inflight.Done()
		defer c.pending.Add(-1)
		if e.claim() {
			e.run()
		}
		return nil
	}
	if box := c.jobs.Load(); box != nil {
		err := box.s.Submit("decode "+resolved, task)
		if err == nil {
			return
		}
		// Left pending; the first Get or Wait decodes it inline.
		c.log.Debug("decode job rejected, deferring to first use",
			zap.String("path", resolved), zap.Error(err))
		c.pending.Add(-1)
		c.inflight.Done()
		return
	}
	go task(context.Background())
}

func (c *Cache) decode(resolved string, kind Kind) (Data, error) {
	start := time.Now()
	c.decodes.Add(1)
	raw, err, _ := c.reads.Do(resolved, func() (any, error) {
		return fs.ReadFile(c.fsys, resolved)
	})
	var data Data
	if err == nil {
		data, err = c.codec.Decode(resolved, raw.([]byte))
	}
	decodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.failures.Add(1)
		decodesTotal.WithLabelValues(kind.String(), "failed").Inc()
		c.log.Warn("asset decode failed", zap.String("path", resolved), zap.Error(err))
		return nil, errs.AssetLoad("asset.decode", err, "%s", resolved)
	}
	decodesTotal.WithLabelValues(kind.String(), "ok").Inc()
	c.log.Debug("asset decoded",
		zap.String("path", resolved),
		zap.Stringer("kind", data.Kind()),
		zap.Int("words", len(data.Words())),
		zap.Duration("took", time.Since(start)),
	)
	return data, nil
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return Stats{
		Entries:  n,
		InFlight: int(c.pending.Load()),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Decodes:  c.decodes.Load(),
		Failures: c.failures.Load(),
	}
}

// Close rejects further loads, waits for running and scheduled decodes to
// settle and drops every entry. Handles already given out stay usable.
func (c *Cache) Close(ctx context.Context) error {
	c.life.Lock()
	already := c.closed
	c.closed = true
	c.life.Unlock()
	if already {
		return nil
	}
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("close asset cache: %w", ctx.Err())
	}
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
	return nil
}
