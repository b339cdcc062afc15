package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/threadlens/pkg/threadlens/posts"
)

// Store persists post snapshots and analysis run summaries
type Store interface {
	Close() error

	// Snapshots
	UpsertPosts(ctx context.Context, snapshot string, ps []posts.Post) error
	Posts(ctx context.Context, snapshot string) ([]posts.Post, error)
	Snapshots(ctx context.Context) ([]Snapshot, error)

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	// Runs lists runs newest first. A snapshot with neither posts nor runs
	// is ErrNotFound; an empty name matches every run.
	Runs(ctx context.Context, snapshot string, limit int) ([]Run, error)
}

// Snapshot summarises a stored collection of posts
type Snapshot struct {
	Name      string    `json:"name"`
	Posts     int       `json:"posts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run records one analysis over a snapshot
type Run struct {
	ID        string    `json:"id"`
	Snapshot  string    `json:"snapshot"`
	CreatedAt time.Time `json:"created_at"`
	Params    RunParams `json:"params"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Sparsity  float64   `json:"sparsity"`
	TopTerms  []string  `json:"top_terms"`
}

// RunParams are the analysis parameters of a run
type RunParams struct {
	MaxTerms        int  `json:"max_terms"`
	MinDocFreq      int  `json:"min_doc_freq"`
	MinFreq         int  `json:"min_freq"`
	IncludeSelftext bool `json:"include_selftext"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a ULID for a run created at t. IDs sort by creation time.
func NewRunID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// PostKey identifies a post within a snapshot: its ID, else its URL, else
// its creation time and title.
func PostKey(p posts.Post) string {
	switch {
	case p.ID != "":
		return "id:" + p.ID
	case p.URL != "":
		return "url:" + p.URL
	}
	return fmt.Sprintf("t:%s:%s", strconv.FormatFloat(p.CreatedUTC, 'f', -1, 64), p.Title)
}
