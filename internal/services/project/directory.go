package project

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DirectorySource hands out a snapshot of the project directory.
type DirectorySource interface {
	Directory(ctx context.Context) (*Directory, error)
}

// Directory is an immutable snapshot of the live (non-deleted) projects.
//
// List order is name ascending, then id. Every scan over the directory,
// fuzzy matching included, follows that order so results repeat across runs.
type Directory struct {
	byID    map[uuid.UUID]*Project
	byName  map[string]*Project
	ordered []*Project
}

func NewDirectory(projects []*Project) *Directory {
	d := &Directory{
		byID:   make(map[uuid.UUID]*Project, len(projects)),
		byName: make(map[string]*Project, len(projects)),
	}
	for _, p := range projects {
		if p == nil || p.IsDeleted {
			continue
		}
		d.ordered = append(d.ordered, p)
	}
	sort.SliceStable(d.ordered, func(i, j int) bool {
		if d.ordered[i].Name != d.ordered[j].Name {
			return d.ordered[i].Name < d.ordered[j].Name
		}
		return d.ordered[i].ID.String() < d.ordered[j].ID.String()
	})
	for _, p := range d.ordered {
		d.byID[p.ID] = p
		// Two live projects should never share a name; if they do the first in order wins.
		if _, ok := d.byName[p.Name]; !ok {
			d.byName[p.Name] = p
		}
	}
	return d
}

func (d *Directory) FindByID(id uuid.UUID) (*Project, bool) {
	p, ok := d.byID[id]
	return p, ok
}

// FindByName is an exact, case-sensitive lookup.
func (d *Directory) FindByName(name string) (*Project, bool) {
	p, ok := d.byName[name]
	return p, ok
}

func (d *Directory) List() []*Project {
	return d.ordered
}

func (d *Directory) Len() int {
	return len(d.ordered)
}

// CachedDirectory memoises the snapshot of another source until invalidated.
type CachedDirectory struct {
	source DirectorySource

	mu      sync.RWMutex
	current *Directory
	gen     uint64
}

func NewCachedDirectory(source DirectorySource) *CachedDirectory {
	return &CachedDirectory{source: source}
}

func (c *CachedDirectory) Directory(ctx context.Context) (*Directory, error) {
	c.mu.RLock()
	d, gen := c.current, c.gen
	c.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	d, err := c.source.Directory(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// An invalidation during the load means d may already be stale; hand it out but don't keep it.
	if c.gen == gen {
		c.current = d
	}
	c.mu.Unlock()
	return d, nil
}

// Invalidate drops the snapshot; the next call reloads from the source.
func (c *CachedDirectory) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.gen++
	c.mu.Unlock()
}
