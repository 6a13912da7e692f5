package search

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

// Per-type result caps, applied after ranking.
const (
	MaxNotebookHits = 10
	MaxSectionHits  = 10
	MaxNoteHits     = 20
)

// Engine searches the notebook, section and note stores of one backend.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	notebooks storage.EntityStore[core.Notebook]
	sections  storage.EntityStore[core.Section]
	notes     storage.EntityStore[core.Note]
	pool      *ants.Pool
	poolSize  int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithPoolSize sets the number of workers running store lookups.
// Default is max(3, NumCPU/2), enough for one search to run its three
// lookups at once.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size <= 0 {
			return ErrInvalidPoolSize
		}
		e.poolSize = size
		return nil
	}
}

// NewEngine creates a new search engine over the given stores.
// Call Release when done to stop the worker pool.
func NewEngine(
	notebooks storage.EntityStore[core.Notebook],
	sections storage.EntityStore[core.Section],
	notes storage.EntityStore[core.Note],
	opts ...Option,
) (*Engine, error) {
	if notebooks == nil {
		return nil, ErrNotebookStoreRequired
	}
	if sections == nil {
		return nil, ErrSectionStoreRequired
	}
	if notes == nil {
		return nil, ErrNoteStoreRequired
	}

	e := &Engine{
		notebooks: notebooks,
		sections:  sections,
		notes:     notes,
		poolSize:  max(3, runtime.NumCPU()/2),
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(e.poolSize)
	if err != nil {
		return nil, err
	}
	e.pool = pool

	return e, nil
}

// Release stops the worker pool. The engine must not be used afterwards.
func (e *Engine) Release() {
	e.pool.Release()
}

// Search runs a validated search across all three entity types.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	return e.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs Search and reports its stages to monitor.
func (e *Engine) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Response, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	req = req.normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	monitor.Start(req)

	var (
		notebooks []NotebookHit
		sections  []SectionHit
		notes     []NoteHit
	)
	err := e.fanOut(ctx,
		func(ctx context.Context) (err error) {
			notebooks, err = searchType(ctx, e.notebooks, core.EntityNotebook, MaxNotebookHits, notebookHit, req)
			return err
		},
		func(ctx context.Context) (err error) {
			sections, err = searchType(ctx, e.sections, core.EntitySection, MaxSectionHits, sectionHit, req)
			return err
		},
		func(ctx context.Context) (err error) {
			notes, err = searchType(ctx, e.notes, core.EntityNote, MaxNoteHits, noteHit, req)
			return err
		},
	)
	if err != nil {
		e.logger.Error("search failed", "user", req.UserID, "query", req.Query, "labels", req.Labels, "err", err)
		return nil, err
	}
	monitor.AfterTypeSearch(core.EntityNotebook, len(notebooks))
	monitor.AfterTypeSearch(core.EntitySection, len(sections))
	monitor.AfterTypeSearch(core.EntityNote, len(notes))

	resp := newResponse(req, notebooks, sections, notes)
	monitor.Finish(resp)
	return resp, nil
}

// searchType runs the bounded lookup for one entity type and shapes its hits.
func searchType[T core.Entity, H any](
	ctx context.Context,
	store storage.EntityStore[T],
	kind core.EntityType,
	limit int,
	shape func(T, Request) H,
	req Request,
) ([]H, error) {
	filter := storage.Filter{
		UserID: req.UserID,
		Text:   req.Query,
		Labels: req.Labels,
		Sort:   storage.SortRecent,
		Limit:  limit,
	}
	if req.Query != "" {
		filter.Sort = storage.SortRelevance
	}

	docs, err := store.Find(ctx, filter)
	if err != nil {
		return nil, &StoreError{Kind: kind, Err: err}
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}

	hits := make([]H, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, shape(doc, req))
	}
	return hits, nil
}

// fanOut runs tasks on the pool and waits for all of them.
// The first failure cancels the context shared by the others and is returned.
func (e *Engine) fanOut(ctx context.Context, tasks ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	for i, task := range tasks {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if err := task(ctx); err != nil {
				errs[i] = err
				cancel()
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = err
			cancel()
		}
	}
	wg.Wait()

	return firstCause(errs)
}

// firstCause prefers an error that is not the cancellation triggered by another failure.
func firstCause(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
