// Package coordinator implements the state machine that owns the indexing
// lock, the pending-events buffer, the debounce timer, and the
// queued-full-index flag, and orchestrates full and incremental reindex
// runs. It also hosts the callback bus that fans out completed-run events
// to subscribers.
package coordinator

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/boundary"
	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/clock"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/movetracker"
	"github.com/marmos91/codeindex/pkg/index/parsecache"
	"github.com/marmos91/codeindex/pkg/index/process"
	"github.com/marmos91/codeindex/pkg/index/scanner"
	"github.com/marmos91/codeindex/pkg/index/store"
	"github.com/marmos91/codeindex/pkg/index/tsconfig"
)

// DefaultDebounceMs is WATCHER_DEBOUNCE_MS: the single-shot delay between
// the first buffered watcher event and the incremental run it triggers.
const DefaultDebounceMs = 100

// maxConcurrentParse bounds how many files are read+parsed concurrently
// during a full index's pre-transaction fan-out.
const maxConcurrentParse = 8

// Config wires a Coordinator to its collaborators.
type Config struct {
	Root           string
	Store          store.Store
	Processor      *process.Processor
	Tracker        *movetracker.Tracker
	ParseCache     *parsecache.Cache
	Boundaries     []model.ProjectBoundary
	Extensions     []string
	IgnorePatterns []string
	Clock          clock.Clock
	DebounceMs     int
}

// Coordinator owns the indexing lock and orchestrates full and incremental
// reindex runs.
type Coordinator struct {
	cfg Config
	clk clock.Clock
	bus *Bus

	mu            sync.Mutex
	boundaries    []model.ProjectBoundary
	resolver      tsconfig.Resolver
	indexing      bool
	pendingEvents []model.FileChangeEvent
	debounceTimer clock.Timer
	currentRun    *runFuture
	pendingFull   bool
	fullWaiters   []*runFuture
}

// New constructs a Coordinator. A nil cfg.Clock defaults to clock.System{};
// cfg.DebounceMs <= 0 defaults to DefaultDebounceMs.
func New(cfg Config) *Coordinator {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	if cfg.DebounceMs <= 0 {
		cfg.DebounceMs = DefaultDebounceMs
	}
	boundaries := make([]model.ProjectBoundary, len(cfg.Boundaries))
	copy(boundaries, cfg.Boundaries)

	return &Coordinator{
		cfg:        cfg,
		clk:        clk,
		bus:        NewBus(),
		boundaries: boundaries,
	}
}

// OnIndexed registers cb to run, in registration order, after every
// completed run (full or incremental). Returns an unsubscribe function.
func (c *Coordinator) OnIndexed(cb Callback) func() {
	return c.bus.Subscribe(cb)
}

// FullIndex requests a full, transactional reindex and waits for it.
func (c *Coordinator) FullIndex(ctx context.Context) (*model.IndexResult, error) {
	return c.startIndex(nil, true).wait(ctx)
}

// IncrementalIndex processes events if supplied; otherwise it scans the
// tree for detected changes. It waits for the run to complete.
func (c *Coordinator) IncrementalIndex(ctx context.Context, events []model.FileChangeEvent) (*model.IndexResult, error) {
	return c.startIndex(events, false).wait(ctx)
}

// HandleWatcherEvent classifies one watcher event: a tsconfig change
// triggers an asynchronous full reindex, a manifest change triggers an
// asynchronous boundaries refresh, anything else is buffered and, if no
// debounce timer is already pending, schedules one.
func (c *Coordinator) HandleWatcherEvent(event model.FileChangeEvent) {
	base := path.Base(event.FilePath)

	if base == tsconfig.FileName {
		c.mu.Lock()
		c.resolver = nil
		c.mu.Unlock()
		go func() {
			if _, err := c.FullIndex(context.Background()); err != nil {
				logger.Error("tsconfig-triggered full reindex failed", logger.Err(err))
			}
		}()
		return
	}

	if base == boundary.ManifestName {
		go c.refreshBoundaries()
		return
	}

	c.mu.Lock()
	c.pendingEvents = append(c.pendingEvents, event)
	if c.debounceTimer == nil {
		c.debounceTimer = c.clk.AfterFunc(time.Duration(c.cfg.DebounceMs)*time.Millisecond, c.onDebounceTick)
	}
	c.mu.Unlock()
}

// onDebounceTick fires once per debounce window. If a run is already in
// progress, the buffered events are left for that run's post-hook to pick
// up; otherwise it starts an incremental run over the buffered events.
func (c *Coordinator) onDebounceTick() {
	c.mu.Lock()
	c.debounceTimer = nil
	if c.indexing {
		c.mu.Unlock()
		return
	}
	events := c.pendingEvents
	c.pendingEvents = nil
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}
	if _, err := c.IncrementalIndex(context.Background(), events); err != nil {
		logger.Error("debounced incremental index failed", logger.Err(err))
	}
}

func (c *Coordinator) refreshBoundaries() {
	boundaries, err := boundary.Discover(c.cfg.Root, nil)
	if err != nil {
		logger.Error("boundary refresh failed", logger.Err(err))
		return
	}
	c.mu.Lock()
	c.boundaries = boundaries
	c.mu.Unlock()
}

// Shutdown cancels any pending debounce timer and waits for any in-flight
// run before returning.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	run := c.currentRun
	c.mu.Unlock()

	if run == nil {
		return nil
	}
	_, err := run.wait(ctx)
	return err
}

// startIndex implements the lock-acquisition rules: a transactional request
// arriving while a run is in progress is queued as a pending full index; a
// non-transactional request arriving while a run is in progress rides the
// in-flight run's future with no new work scheduled.
func (c *Coordinator) startIndex(events []model.FileChangeEvent, transactional bool) *runFuture {
	c.mu.Lock()
	if c.indexing {
		if transactional {
			waiter := newRunFuture()
			c.pendingFull = true
			c.fullWaiters = append(c.fullWaiters, waiter)
			c.mu.Unlock()
			return waiter
		}
		inFlight := c.currentRun
		c.mu.Unlock()
		return inFlight
	}

	run := newRunFuture()
	c.indexing = true
	c.currentRun = run
	c.mu.Unlock()

	go c.runAndPostHook(run, events, transactional, nil)
	return run
}

// runAndPostHook runs one doIndex pass, resolves run (and any waiters
// riding it), then applies the post-hook: a queued full index takes
// priority over queued incremental events. It recurses directly (no new
// goroutine) to chain the next run, since there is no external caller
// context for an internally-triggered rerun.
func (c *Coordinator) runAndPostHook(run *runFuture, events []model.FileChangeEvent, transactional bool, waiters []*runFuture) {
	result, err := c.doIndex(context.Background(), events, transactional)
	run.resolve(result, err)
	for _, w := range waiters {
		w.resolve(result, err)
	}

	c.mu.Lock()
	c.indexing = false
	c.currentRun = nil

	if c.pendingFull {
		c.pendingFull = false
		nextWaiters := c.fullWaiters
		c.fullWaiters = nil
		nextRun := newRunFuture()
		c.indexing = true
		c.currentRun = nextRun
		c.mu.Unlock()
		c.runAndPostHook(nextRun, nil, true, nextWaiters)
		return
	}

	if len(c.pendingEvents) > 0 {
		pending := c.pendingEvents
		c.pendingEvents = nil
		nextRun := newRunFuture()
		c.indexing = true
		c.currentRun = nextRun
		c.mu.Unlock()
		c.runAndPostHook(nextRun, pending, false, nil)
		return
	}

	c.mu.Unlock()
}

func (c *Coordinator) currentBoundaries() []model.ProjectBoundary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ProjectBoundary, len(c.boundaries))
	copy(out, c.boundaries)
	return out
}

func (c *Coordinator) currentResolver() (tsconfig.Resolver, error) {
	c.mu.Lock()
	resolver := c.resolver
	c.mu.Unlock()
	if resolver != nil {
		return resolver, nil
	}

	loaded, err := loadResolver(c.cfg.Root)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.resolver = loaded
	c.mu.Unlock()
	return loaded, nil
}

func loadResolver(root string) (tsconfig.Resolver, error) {
	p := filepath.Join(root, tsconfig.FileName)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return tsconfig.Empty{}, nil
		}
		return nil, err
	}
	return tsconfig.Load(root, p)
}

// doIndex runs one full or incremental indexing pass.
func (c *Coordinator) doIndex(ctx context.Context, events []model.FileChangeEvent, transactional bool) (*model.IndexResult, error) {
	start := c.clk.Now()
	boundaries := c.currentBoundaries()

	resolver, err := c.currentResolver()
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Index, "failed to resolve tsconfig paths", err)
	}

	changed, deleted, err := c.classifyInputs(ctx, boundaries, events)
	if err != nil {
		return nil, err
	}

	var result *model.IndexResult
	if transactional {
		result, err = c.doFullIndex(ctx, boundaries, resolver, changed)
	} else {
		var deletedSnapshot []*model.Symbol
		deletedSnapshot, err = c.snapshotDeletedSymbols(ctx, boundaries, deleted)
		if err != nil {
			return nil, err
		}
		result, err = c.doIncrementalIndex(ctx, boundaries, resolver, changed, deleted, deletedSnapshot)
	}
	if err != nil {
		return nil, err
	}

	result.DurationMs = c.clk.Now().Sub(start).Milliseconds()
	logger.Info("index run completed",
		logger.RunKind(runKind(transactional)), logger.FilesChanged(result.IndexedFiles),
		logger.FilesRemoved(result.RemovedFiles), logger.Duration(float64(result.DurationMs)))
	c.bus.Emit(result)
	return result, nil
}

func runKind(transactional bool) string {
	if transactional {
		return "full"
	}
	return "incremental"
}

func (c *Coordinator) classifyInputs(ctx context.Context, boundaries []model.ProjectBoundary, events []model.FileChangeEvent) (changed, deleted []string, err error) {
	if events != nil {
		// A debounce window routinely buffers several events for the same
		// path (e.g. a save followed by an editor's atomic rename-into-
		// place). Collapse to one entry per path, last event wins, so a
		// path is processed exactly once and indexedFiles counts distinct
		// files, not raw events.
		order := make([]string, 0, len(events))
		lastType := make(map[string]model.FileChangeEventType, len(events))
		for _, ev := range events {
			if _, seen := lastType[ev.FilePath]; !seen {
				order = append(order, ev.FilePath)
			}
			lastType[ev.FilePath] = ev.Type
		}
		for _, relPath := range order {
			if lastType[relPath] == model.EventDelete {
				deleted = append(deleted, relPath)
			} else {
				changed = append(changed, relPath)
			}
		}
		return changed, deleted, nil
	}

	existingMap, err := c.aggregateExistingMap(ctx, boundaries)
	if err != nil {
		return nil, nil, indexerrors.Wrap(indexerrors.Store, "failed to load existing file map", err)
	}
	scanResult, err := scanner.Scan(c.cfg.Root, c.cfg.Extensions, c.cfg.IgnorePatterns, existingMap)
	if err != nil {
		return nil, nil, indexerrors.Wrap(indexerrors.Index, "scan failed", err)
	}
	return scanResult.Changed, scanResult.Deleted, nil
}

// aggregateExistingMap merges every boundary's file map into one flat map
// keyed by plain root-relative path, matching scanner.Scan's expectation
// (FileScanner operates on the whole root, not per-project).
func (c *Coordinator) aggregateExistingMap(ctx context.Context, boundaries []model.ProjectBoundary) (map[string]*model.FileRecord, error) {
	merged := make(map[string]*model.FileRecord)
	for _, b := range boundaries {
		files, err := c.cfg.Store.GetFilesMap(ctx, b.Project)
		if err != nil {
			return nil, err
		}
		for relPath, rec := range files {
			merged[relPath] = rec
		}
	}
	return merged, nil
}

func (c *Coordinator) snapshotDeletedSymbols(ctx context.Context, boundaries []model.ProjectBoundary, deleted []string) ([]*model.Symbol, error) {
	var snapshot []*model.Symbol
	for _, relPath := range deleted {
		project := boundary.Resolve(boundaries, relPath)
		symbols, err := c.cfg.Store.GetFileSymbols(ctx, project, relPath)
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to snapshot symbols for "+relPath, err)
		}
		snapshot = append(snapshot, symbols...)
	}
	return snapshot, nil
}

func (c *Coordinator) allProjectSymbols(ctx context.Context, boundaries []model.ProjectBoundary) ([]*model.Symbol, error) {
	var all []*model.Symbol
	for _, b := range boundaries {
		files, err := c.cfg.Store.GetAllFiles(ctx, b.Project)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			symbols, err := c.cfg.Store.GetFileSymbols(ctx, b.Project, f.RelativePath)
			if err != nil {
				return nil, err
			}
			all = append(all, symbols...)
		}
	}
	return all, nil
}

// doIncrementalIndex implements §4.6 step 5: cascade-delete removed files,
// reprocess each changed file (a single file's failure does not fail the
// run), then run the move tracker over the pre-deletion symbol snapshot.
func (c *Coordinator) doIncrementalIndex(ctx context.Context, boundaries []model.ProjectBoundary, resolver tsconfig.Resolver, changed, deleted []string, deletedSnapshot []*model.Symbol) (*model.IndexResult, error) {
	result := &model.IndexResult{ChangedFiles: changed, DeletedFiles: deleted, Transactional: false}

	for _, relPath := range deleted {
		project := boundary.Resolve(boundaries, relPath)
		if err := c.cfg.Store.DeleteFileCascade(ctx, project, relPath); err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to delete "+relPath, err)
		}
		result.RemovedFiles++
	}

	opts := process.Options{Boundaries: boundaries, Resolver: resolver}
	var beforeAll, afterAll []*model.Symbol

	for _, relPath := range changed {
		project := boundary.Resolve(boundaries, relPath)
		beforeSymbols, err := c.cfg.Store.GetFileSymbols(ctx, project, relPath)
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to read prior symbols for "+relPath, err)
		}
		beforeAll = append(beforeAll, beforeSymbols...)

		processed, err := c.cfg.Processor.Process(relPath, "", opts)
		if err != nil {
			logger.Warn("failed to process file", logger.FilePath(relPath), logger.Err(err))
			result.FailedFiles = append(result.FailedFiles, relPath)
			continue
		}

		if err := c.cfg.Store.UpsertFile(ctx, processed.File); err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to upsert "+relPath, err)
		}
		if err := c.cfg.Store.ReplaceFileSymbols(ctx, processed.Project, relPath, processed.Symbols); err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to write symbols for "+relPath, err)
		}
		if err := c.cfg.Store.ReplaceFileRelations(ctx, processed.Project, relPath, processed.Relations); err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to write relations for "+relPath, err)
		}

		afterAll = append(afterAll, processed.Symbols...)
		result.IndexedFiles++
		result.TotalSymbols += len(processed.Symbols)
		result.TotalRelations += len(processed.Relations)
	}

	if err := c.runMoveTracker(ctx, deletedSnapshot); err != nil {
		return nil, err
	}

	result.ChangedSymbols = diffSymbols(append(beforeAll, deletedSnapshot...), afterAll)
	return result, nil
}

func (c *Coordinator) runMoveTracker(ctx context.Context, deletedSnapshot []*model.Symbol) error {
	if c.cfg.Tracker == nil || len(deletedSnapshot) == 0 {
		return nil
	}
	byProject := make(map[string][]*model.Symbol)
	for _, sym := range deletedSnapshot {
		byProject[sym.Project] = append(byProject[sym.Project], sym)
	}
	for project, snapshot := range byProject {
		if err := c.cfg.Tracker.Track(ctx, project, snapshot); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "move tracking failed for "+project, err)
		}
	}
	return nil
}

// knownFilesOf builds the full-index allow-list process.Options.KnownFiles
// expects: every file this run is about to (re)write, keyed
// "project::relPath", so a relation whose target isn't part of this run is
// dropped rather than left dangling.
func knownFilesOf(boundaries []model.ProjectBoundary, changed []string) map[string]bool {
	known := make(map[string]bool, len(changed))
	for _, relPath := range changed {
		project := boundary.Resolve(boundaries, relPath)
		known[project+"::"+relPath] = true
	}
	return known
}

type bufferedParse struct {
	relPath string
	result  *process.Result
}

// doFullIndex implements §4.6 step 6: read+parse every changed file
// concurrently outside any transaction, then inside one transaction wipe
// every boundary's existing rows and rewrite them from the buffered
// results. Parse results are pushed to the parse cache only after commit.
func (c *Coordinator) doFullIndex(ctx context.Context, boundaries []model.ProjectBoundary, resolver tsconfig.Resolver, changed []string) (*model.IndexResult, error) {
	result := &model.IndexResult{ChangedFiles: changed, Transactional: true}

	beforeAll, err := c.allProjectSymbols(ctx, boundaries)
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to snapshot symbols before full index", err)
	}

	opts := process.Options{Boundaries: boundaries, Resolver: resolver, KnownFiles: knownFilesOf(boundaries, changed)}
	buffered, failed := c.parseAllConcurrently(changed, opts)
	result.FailedFiles = append(result.FailedFiles, failed...)

	var afterAll []*model.Symbol
	err = c.cfg.Store.Transaction(ctx, func(tx store.Transaction) error {
		for _, b := range boundaries {
			files, err := tx.GetAllFiles(ctx, b.Project)
			if err != nil {
				return err
			}
			for _, f := range files {
				if err := tx.DeleteFile(ctx, b.Project, f.RelativePath); err != nil {
					return err
				}
				if err := tx.DeleteFileSymbols(ctx, b.Project, f.RelativePath); err != nil {
					return err
				}
				if err := tx.DeleteFileRelations(ctx, b.Project, f.RelativePath); err != nil {
					return err
				}
			}
		}

		for _, p := range buffered {
			if err := tx.UpsertFile(ctx, p.result.File); err != nil {
				return err
			}
			if err := tx.ReplaceFileSymbols(ctx, p.result.Project, p.relPath, p.result.Symbols); err != nil {
				return err
			}
			if err := tx.ReplaceFileRelations(ctx, p.result.Project, p.relPath, p.result.Relations); err != nil {
				return err
			}
			afterAll = append(afterAll, p.result.Symbols...)
			result.IndexedFiles++
			result.TotalSymbols += len(p.result.Symbols)
			result.TotalRelations += len(p.result.Relations)
		}
		return nil
	})
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "full index transaction failed", err)
	}

	if c.cfg.ParseCache != nil {
		for _, p := range buffered {
			c.cfg.ParseCache.Put(p.relPath, p.result)
		}
	}

	result.ChangedSymbols = diffSymbols(beforeAll, afterAll)
	return result, nil
}

// parseAllConcurrently reads and processes every changed file with bounded
// concurrency. Parsing is pure with respect to the store, so this runs
// outside any transaction to keep the critical section short.
func (c *Coordinator) parseAllConcurrently(changed []string, opts process.Options) (buffered []bufferedParse, failed []string) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentParse)

	for _, relPath := range changed {
		relPath := relPath
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			processed, err := c.cfg.Processor.Process(relPath, "", opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("failed to parse file during full index", logger.FilePath(relPath), logger.Err(err))
				failed = append(failed, relPath)
				return
			}
			buffered = append(buffered, bufferedParse{relPath: relPath, result: processed})
		}()
	}
	wg.Wait()

	sort.Slice(buffered, func(i, j int) bool { return buffered[i].relPath < buffered[j].relPath })
	sort.Strings(failed)
	return buffered, failed
}

type symbolDiffKey struct {
	filePath  string
	qualified string
	kind      model.SymbolKind
}

// diffSymbols computes the changedSymbols buckets: added is in after only,
// removed is in before only, modified is in both with a different
// fingerprint.
func diffSymbols(before, after []*model.Symbol) model.ChangedSymbols {
	beforeByKey := make(map[symbolDiffKey]*model.Symbol, len(before))
	for _, s := range before {
		beforeByKey[symbolDiffKeyOf(s)] = s
	}
	afterByKey := make(map[symbolDiffKey]*model.Symbol, len(after))
	for _, s := range after {
		afterByKey[symbolDiffKeyOf(s)] = s
	}

	var diff model.ChangedSymbols
	for key, s := range afterByKey {
		prior, ok := beforeByKey[key]
		switch {
		case !ok:
			diff.Added = append(diff.Added, refOf(s))
		case prior.Fingerprint != s.Fingerprint:
			diff.Modified = append(diff.Modified, refOf(s))
		}
	}
	for key, s := range beforeByKey {
		if _, ok := afterByKey[key]; !ok {
			diff.Removed = append(diff.Removed, refOf(s))
		}
	}

	sortRefs(diff.Added)
	sortRefs(diff.Removed)
	sortRefs(diff.Modified)
	return diff
}

func symbolDiffKeyOf(s *model.Symbol) symbolDiffKey {
	return symbolDiffKey{filePath: s.RelativePath, qualified: s.QualifiedName, kind: s.Kind}
}

func refOf(s *model.Symbol) model.SymbolRef {
	return model.SymbolRef{Name: s.QualifiedName, FilePath: s.RelativePath, Kind: s.Kind}
}

func sortRefs(refs []model.SymbolRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].FilePath != refs[j].FilePath {
			return refs[i].FilePath < refs[j].FilePath
		}
		return refs[i].Name < refs[j].Name
	})
}
