// Package matcher runs the search pipeline (filter, score, rank) against an
// atomically published catalog snapshot.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/fos"
)

// ErrNoSnapshot is returned when a search runs before any catalog is loaded.
var ErrNoSnapshot = errors.New("no catalog snapshot loaded")

// Snapshot is an immutable catalog and field-of-study index pair.
type Snapshot struct {
	Catalog      *catalog.Catalog
	Programs     *fos.Index
	Version      uuid.UUID
	LoadedAt     time.Time
	CatalogStats catalog.LoadStats
	ProgramStats fos.LoadStats
}

// NewSnapshot wraps c and programs with a fresh version.
func NewSnapshot(c *catalog.Catalog, programs *fos.Index) *Snapshot {
	if programs == nil {
		programs = fos.NewIndex(nil)
	}
	return &Snapshot{
		Catalog:  c,
		Programs: programs,
		Version:  uuid.New(),
		LoadedAt: time.Now().UTC(),
	}
}

// Store publishes the current snapshot to concurrent readers. Snapshots are
// replaced whole, never mutated.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding snap, which may be nil.
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	if snap != nil {
		s.current.Store(snap)
	}
	return s
}

// Load returns the current snapshot or nil.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Swap publishes next and returns the previous snapshot.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}

// Sources names the files a snapshot is built from. FieldsOfStudy is
// optional.
type Sources struct {
	Institutions  string `mapstructure:"institutions"`
	FieldsOfStudy string `mapstructure:"fields-of-study"`
}

// Paths returns the configured, non-empty paths.
func (s Sources) Paths() []string {
	var out []string
	for _, p := range []string{s.Institutions, s.FieldsOfStudy} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadSnapshot reads the institution and field-of-study files concurrently
// and builds a snapshot.
func LoadSnapshot(ctx context.Context, src Sources) (*Snapshot, error) {
	if src.Institutions == "" {
		return nil, fmt.Errorf("institutions data path is required")
	}

	var (
		items        []*catalog.Institution
		catalogStats catalog.LoadStats
		offerings    []fos.Offering
		programStats fos.LoadStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		items, catalogStats, err = catalog.LoadFile(src.Institutions)
		if err != nil {
			return fmt.Errorf("load institutions: %w", err)
		}
		return nil
	})
	if src.FieldsOfStudy != "" {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			offerings, programStats, err = fos.LoadFile(src.FieldsOfStudy)
			if err != nil {
				return fmt.Errorf("load fields of study: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c, err := catalog.New(items)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	snap := NewSnapshot(c, fos.NewIndex(offerings))
	snap.CatalogStats = catalogStats
	snap.ProgramStats = programStats
	return snap, nil
}
