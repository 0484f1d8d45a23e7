// Package library is the asset catalog new objects are placed from. Entries
// come from a YAML manifest; model bounds are read asynchronously and feed
// the pickable volumes of placed objects.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"zone-editor/core"
	"zone-editor/internal/logging"
	"zone-editor/scene"
)

// ErrUnknownAsset is returned when a (kind, index) pair names no entry
var ErrUnknownAsset = errors.New("unknown asset")

// Entry is one catalog item. Index is its position among entries of the
// same kind and is what objects store as SourceRef.
type Entry struct {
	Index  int        `yaml:"-"`
	Kind   scene.Kind `yaml:"kind"`
	Name   string     `yaml:"name"`
	Model  string     `yaml:"model"`
	Bounds *BoxConfig `yaml:"bounds,omitempty"`
}

// BoxConfig is an explicit model-space box in a manifest
type BoxConfig struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

func (b BoxConfig) AABB() core.AABB {
	return core.AABB{Min: mgl32.Vec3(b.Min), Max: mgl32.Vec3(b.Max)}
}

type manifest struct {
	Assets []Entry `yaml:"assets"`
}

type handleKey struct {
	kind  scene.Kind
	index int
}

// Catalog lists placeable assets per kind and resolves them to handles.
// It is safe for concurrent use.
type Catalog struct {
	baseDir string
	log     logging.Logger

	mu      sync.Mutex
	entries map[scene.Kind][]Entry
	handles map[handleKey]*Handle
	loader  func(path string) (core.AABB, error)
}

func NewCatalog(baseDir string, log logging.Logger) *Catalog {
	return &Catalog{
		baseDir: baseDir,
		log:     logging.OrNop(log),
		entries: make(map[scene.Kind][]Entry),
		handles: make(map[handleKey]*Handle),
		loader:  ModelBounds,
	}
}

// LoadCatalog reads a manifest file. Model paths are relative to the
// manifest's directory.
func LoadCatalog(path string, log logging.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	c := NewCatalog(filepath.Dir(path), log)
	if err := c.parse(data); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) parse(data []byte) error {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	for i, e := range m.Assets {
		if e.Name == "" {
			return fmt.Errorf("asset %d: missing name", i)
		}
		c.Add(e)
	}
	return nil
}

// Add appends an entry and returns its index within its kind
func (c *Catalog) Add(e Entry) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.Index = len(c.entries[e.Kind])
	c.entries[e.Kind] = append(c.entries[e.Kind], e)
	return e.Index
}

// List returns the entries of kind whose name contains search, ignoring case
func (c *Catalog) List(kind scene.Kind, search string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	search = strings.ToLower(strings.TrimSpace(search))
	var out []Entry
	for _, e := range c.entries[kind] {
		if search == "" || strings.Contains(strings.ToLower(e.Name), search) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Catalog) Entry(kind scene.Kind, index int) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.entries[kind]
	if index < 0 || index >= len(list) {
		return Entry{}, false
	}
	return list[index], true
}

// Resolve returns the handle of an entry, starting its load on first use.
// It never waits for the load; callers that need the result select on
// Handle.Ready.
func (c *Catalog) Resolve(kind scene.Kind, index int) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := handleKey{kind, index}
	if h, ok := c.handles[key]; ok {
		return h, nil
	}
	list := c.entries[kind]
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %s #%d", ErrUnknownAsset, kind, index)
	}

	entry := list[index]
	h := &Handle{ID: uuid.New(), Entry: entry, ready: make(chan struct{})}
	c.handles[key] = h

	switch {
	case entry.Bounds != nil:
		h.finish(entry.Bounds.AABB(), nil)
	case entry.Model == "":
		h.finish(core.UnitAABB, nil)
	default:
		path := entry.Model
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.baseDir, path)
		}
		go c.load(h, path)
	}
	return h, nil
}

func (c *Catalog) load(h *Handle, path string) {
	bounds, err := c.loader(path)
	if err != nil {
		c.log.Warnf("asset %s (%s): %v", h.Entry.Name, h.ID, err)
	} else {
		c.log.Debugf("asset %s loaded: %v..%v", h.Entry.Name, bounds.Min, bounds.Max)
	}
	h.finish(bounds, err)
}

// Bounds returns the pickable volume of obj's asset, resolving it on first
// use. Part kinds use the entries of their own kind. Unknown, failed or
// still loading assets yield the unit box.
func (c *Catalog) Bounds(obj scene.Object) core.AABB {
	h, err := c.Resolve(obj.Kind, obj.SourceRef)
	if err != nil {
		return core.UnitAABB
	}
	if b, done, err := h.Bounds(); done && err == nil {
		return b
	}
	return core.UnitAABB
}

// BoundsFunc adapts the catalog to a collider
func (c *Catalog) BoundsFunc() scene.BoundsFunc {
	return c.Bounds
}

// Handle is a reference to a resolved asset. Its data becomes available
// once Ready is closed.
type Handle struct {
	ID    uuid.UUID
	Entry Entry

	ready  chan struct{}
	once   sync.Once
	bounds core.AABB
	err    error
}

func (h *Handle) finish(bounds core.AABB, err error) {
	h.once.Do(func() {
		h.bounds = bounds
		h.err = err
		close(h.ready)
	})
}

// Ready is closed once loading finished, successfully or not
func (h *Handle) Ready() <-chan struct{} { return h.ready }

// Bounds reports the loaded model box. done is false while loading.
func (h *Handle) Bounds() (box core.AABB, done bool, err error) {
	select {
	case <-h.ready:
		return h.bounds, true, h.err
	default:
		return core.AABB{}, false, nil
	}
}
