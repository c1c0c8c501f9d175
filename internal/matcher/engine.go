package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/unifit/internal/filtering"
	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/profile"
	"github.com/spigell/unifit/internal/ranking"
	"github.com/spigell/unifit/internal/scoring"
	"github.com/spigell/unifit/internal/selections"
)

// DefaultCacheSize is the number of ranked outcomes kept for repeated
// searches.
const DefaultCacheSize = 128

// Request is one search.
type Request struct {
	Profile *profile.Profile
	// Selections is returned updated on the result.
	Selections selections.UserSelections
	// Limit overrides the engine limit when positive.
	Limit int
	// SeedShortlist adds every ranked candidate to the shortlist.
	SeedShortlist bool
	// SkipFilters names filters to disable for this search.
	SkipFilters []string
}

// Result is the outcome of one search. Candidates must be treated as
// read-only.
type Result struct {
	ID             uuid.UUID                 `json:"id"`
	CatalogVersion uuid.UUID                 `json:"catalog_version"`
	Candidates     []scoring.Candidate       `json:"candidates"`
	Steps          []filtering.Report        `json:"steps"`
	Considered     int                       `json:"considered"`
	Cached         bool                      `json:"cached"`
	Selections     selections.UserSelections `json:"selections"`
}

// Empty reports whether no institution survived filtering.
func (r *Result) Empty() bool {
	return r == nil || len(r.Candidates) == 0
}

// outcome is the cacheable part of a result.
type outcome struct {
	candidates []scoring.Candidate
	steps      []filtering.Report
	considered int
}

// Engine runs searches against the snapshot held by a Store. It is safe for
// concurrent use.
type Engine struct {
	store     *Store
	weights   scoring.Weights
	limit     int
	cacheSize int
	logger    *zap.Logger

	cache *resultCache
	group singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights sets the overall score weights.
func WithWeights(w scoring.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithLimit sets the default number of ranked candidates returned.
func WithLimit(limit int) Option {
	return func(e *Engine) { e.limit = limit }
}

// WithCacheSize sets the number of cached outcomes; zero disables caching.
func WithCacheSize(size int) Option {
	return func(e *Engine) { e.cacheSize = size }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine reading snapshots from store.
func New(store *Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		weights:   scoring.DefaultWeights(),
		limit:     ranking.DefaultLimit,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.WithFields(e.logger)
	e.cache = newResultCache(e.cacheSize)
	return e
}

// Snapshot returns the snapshot searches currently run against.
func (e *Engine) Snapshot() *Snapshot {
	return e.store.Load()
}

// Purge drops every cached outcome.
func (e *Engine) Purge() {
	e.cache.purge()
}

// Filters returns the status of the filters a search with p would run.
func (e *Engine) Filters(p *profile.Profile) []filtering.Status {
	steps := filtering.Default()
	snap := e.store.Load()
	if p != nil && snap != nil {
		cfg := &filtering.Config{Profile: p, ObservedTypes: snap.Catalog.ObservedControlTypes()}
		for _, step := range steps {
			_ = step.Validate(cfg)
		}
	}
	return filtering.Describe(steps)
}

// Match filters, scores and ranks the current catalog for req.Profile. An
// empty candidate list is a successful result.
func (e *Engine) Match(ctx context.Context, req Request) (*Result, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	snap := e.store.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	limit := e.limit
	if req.Limit > 0 {
		limit = req.Limit
	}

	id := uuid.New()
	log := logger.WithSearchFields(e.logger, id.String(), snap.Version.String())

	key, err := cacheKey(req, snap, limit)
	if err != nil {
		return nil, err
	}

	out, cached := e.cache.get(key)
	if !cached {
		// The shared run outlives any single caller; each caller stops
		// waiting on its own context.
		shared := context.WithoutCancel(ctx)
		ch := e.group.DoChan(key, func() (any, error) {
			o, err := e.run(shared, log, snap, req, limit)
			if err != nil {
				return nil, err
			}
			e.cache.add(key, o)
			return o, nil
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				return nil, r.Err
			}
			out = r.Val.(*outcome)
		}
	}

	res := &Result{
		ID:             id,
		CatalogVersion: snap.Version,
		Candidates:     slices.Clone(out.candidates),
		Steps:          slices.Clone(out.steps),
		Considered:     out.considered,
		Cached:         cached,
		Selections:     req.Selections,
	}
	if req.SeedShortlist {
		res.Selections = res.Selections.SeedShortlist(res.Candidates)
	}

	if res.Empty() {
		log.Info("search found no matching institutions", zap.Int("catalog_size", snap.Catalog.Len()))
	} else {
		log.Info("search completed",
			zap.Int("considered", res.Considered),
			zap.Int("returned", len(res.Candidates)),
			zap.Int("top_score", res.Candidates[0].MatchScore),
			zap.Bool("cached", res.Cached),
			zap.Int("cache_entries", e.cache.size()),
		)
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, log *zap.Logger, snap *Snapshot, req Request, limit int) (*outcome, error) {
	steps := filtering.Default()
	for _, name := range req.SkipFilters {
		filtering.DisableByName(steps, name, "skipped by request")
	}

	cfg := &filtering.Config{Profile: req.Profile, ObservedTypes: snap.Catalog.ObservedControlTypes()}
	kept, reports, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: log}, steps, snap.Catalog.All())
	if err != nil {
		return nil, fmt.Errorf("filter catalog: %w", err)
	}

	scored := scoring.New(snap.Programs, e.weights).ScoreAll(kept, req.Profile)
	ranked := ranking.Rank(scored, limit)
	log.Debug("candidates scored", zap.Int("scored", len(scored)), zap.Int("ranked", len(ranked)))

	return &outcome{candidates: ranked, steps: reports, considered: len(kept)}, nil
}

type keyDoc struct {
	Profile *profile.Profile `json:"profile"`
	Version uuid.UUID        `json:"version"`
	Limit   int              `json:"limit"`
	Skip    []string         `json:"skip,omitempty"`
}

func cacheKey(req Request, snap *Snapshot, limit int) (string, error) {
	skip := slices.Clone(req.SkipFilters)
	sort.Strings(skip)
	data, err := json.Marshal(keyDoc{Profile: req.Profile, Version: snap.Version, Limit: limit, Skip: skip})
	if err != nil {
		return "", fmt.Errorf("build cache key: %w", err)
	}
	return string(data), nil
}
