package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*snapshot
	runs      map[string]store.Run
	now       func() time.Time
}

type snapshot struct {
	order     []string // post keys in first-insertion order
	posts     map[string]posts.Post
	updatedAt time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]*snapshot),
		runs:      make(map[string]store.Run),
		now:       time.Now,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertPosts inserts or replaces posts of a snapshot, keyed by store.PostKey.
func (s *Store) UpsertPosts(ctx context.Context, name string, ps []posts.Post) error {
	if name == "" {
		return fmt.Errorf("%w: empty snapshot name", internalerr.ErrPrecondition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[name]
	if !ok {
		snap = &snapshot{posts: make(map[string]posts.Post)}
		s.snapshots[name] = snap
	}
	for _, p := range ps {
		key := store.PostKey(p)
		if _, exists := snap.posts[key]; !exists {
			snap.order = append(snap.order, key)
		}
		snap.posts[key] = p
	}
	snap.updatedAt = s.now().UTC()
	return nil
}

// Posts returns a snapshot's posts in insertion order.
func (s *Store) Posts(ctx context.Context, name string) ([]posts.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[name]
	if !ok {
		return nil, fmt.Errorf("%w: snapshot %q", internalerr.ErrNotFound, name)
	}
	out := make([]posts.Post, len(snap.order))
	for i, key := range snap.order {
		out[i] = snap.posts[key]
	}
	return out, nil
}

// Snapshots lists snapshots by name.
func (s *Store) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Snapshot, 0, len(s.snapshots))
	for name, snap := range s.snapshots {
		out = append(out, store.Snapshot{Name: name, Posts: len(snap.order), UpdatedAt: snap.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveRun stores a run, replacing any run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrPrecondition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r.TopTerms = append([]string(nil), r.TopTerms...)
	s.runs[r.ID] = r
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("%w: run %q", internalerr.ErrNotFound, id)
	}
	r.TopTerms = append([]string(nil), r.TopTerms...)
	return r, nil
}

// Runs returns the newest runs of a snapshot first. An empty snapshot
// matches every run; limit <= 0 means 10. A name with neither posts nor
// runs is ErrNotFound.
func (s *Store) Runs(ctx context.Context, name string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Run
	for _, r := range s.runs {
		if name != "" && r.Snapshot != name {
			continue
		}
		r.TopTerms = append([]string(nil), r.TopTerms...)
		out = append(out, r)
	}
	if _, ok := s.snapshots[name]; name != "" && !ok && len(out) == 0 {
		return nil, fmt.Errorf("%w: snapshot %q", internalerr.ErrNotFound, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
