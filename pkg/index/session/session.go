// Package session implements Session: the public handle that validates
// configuration, owns every other component, resolves the default project,
// and exposes queries and the open/close lifecycle.
package session

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/boundary"
	"github.com/marmos91/codeindex/pkg/index/clock"
	"github.com/marmos91/codeindex/pkg/index/coordinator"
	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/graph"
	"github.com/marmos91/codeindex/pkg/index/graphcache"
	"github.com/marmos91/codeindex/pkg/index/health"
	"github.com/marmos91/codeindex/pkg/index/metrics"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/movetracker"
	"github.com/marmos91/codeindex/pkg/index/ownership"
	"github.com/marmos91/codeindex/pkg/index/parsecache"
	"github.com/marmos91/codeindex/pkg/index/process"
	"github.com/marmos91/codeindex/pkg/index/store"
	"github.com/marmos91/codeindex/pkg/index/store/badger"
	"github.com/marmos91/codeindex/pkg/index/watch"
	"github.com/marmos91/codeindex/pkg/index/watch/fsnotify"
	"github.com/marmos91/codeindex/pkg/index/watch/noop"
)

// DefaultExtensions are the source extensions indexed when Config.Extensions
// is empty.
var DefaultExtensions = []string{".ts", ".mts", ".cts"}

const defaultParseCacheCapacity = 500

// Config carries every recognised session option.
type Config struct {
	// ProjectRoot must be an absolute path that exists.
	ProjectRoot string

	Extensions         []string
	IgnorePatterns     []string
	ParseCacheCapacity int

	// WatchMode defaults to true. Set false for one-shot scan mode: no
	// ownership arbitration, heartbeat, watcher, or signal handlers —
	// an initial full index runs on Open and the Session never updates
	// itself again.
	WatchMode *bool

	// PID identifies this process to the ownership arbiter. Defaults to
	// os.Getpid().
	PID int

	// Clock defaults to clock.System{}. Tests inject clock.Fake.
	Clock clock.Clock

	// LivenessProbe defaults to ownership.DefaultStaleSeconds-based
	// staleness only (no pid probe).
	LivenessProbe ownership.LivenessProbe

	// Metrics, when non-nil, receives one ObserveRun per completed run; the
	// Session reports no graph-cache or pending-event observations to it.
	Metrics *metrics.Metrics

	// Store overrides the default BadgerDB-backed store, e.g. with
	// store/memory in tests. Defaults to badger.Open at
	// <ProjectRoot>/.codeindex/db.
	Store store.Store

	// StaleSeconds, HealthCheckIntervalMs, HeartbeatIntervalMs, and
	// MaxRetries tune the ownership arbiter and health monitor. Zero uses
	// each component's own default.
	StaleSeconds          int
	HealthCheckIntervalMs int
	HeartbeatIntervalMs   int
	MaxRetries            int
}

func (c Config) watchMode() bool {
	if c.WatchMode == nil {
		return true
	}
	return *c.WatchMode
}

func (c Config) pid() int {
	if c.PID > 0 {
		return c.PID
	}
	return os.Getpid()
}

// Session is the public handle over one indexed project root.
type Session struct {
	cfg  Config
	root string
	clk  clock.Clock

	store   store.Store
	arbiter *ownership.Arbiter

	processor *process.Processor
	tracker   *movetracker.Tracker
	parseCache *parsecache.Cache
	graphCache *graphcache.Cache
	health     *health.Monitor

	mu             sync.RWMutex
	closed         bool
	defaultProject string
	boundaries     []model.ProjectBoundary
	role           ownership.Role
	coordinator    *coordinator.Coordinator
	watcher        watch.Watcher
	nextCallbackID uint64
	userCallbacks  []registeredCallback

	sigCh   chan os.Signal
	sigDone chan struct{}
}

// registeredCallback pairs a user onIndexed callback with an id, so it can
// be re-subscribed to a promoted coordinator and individually unsubscribed
// without relying on function identity (funcs are not comparable in Go).
type registeredCallback struct {
	id uint64
	cb coordinator.Callback
}

// Open validates cfg, opens the store, discovers project boundaries,
// acquires ownership, and — depending on role — starts either the owner's
// coordinator/watcher/heartbeat or the reader's health-check loop.
func Open(cfg Config) (*Session, error) {
	if !filepath.IsAbs(cfg.ProjectRoot) {
		return nil, indexerrors.New(indexerrors.Validation, "projectRoot must be an absolute path")
	}
	if _, err := os.Stat(cfg.ProjectRoot); err != nil {
		return nil, indexerrors.Wrap(indexerrors.Validation, "projectRoot does not exist", err)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.ParseCacheCapacity <= 0 {
		cfg.ParseCacheCapacity = defaultParseCacheCapacity
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}

	st := cfg.Store
	if st == nil {
		opened, err := badger.Open(badger.Options{Dir: filepath.Join(cfg.ProjectRoot, ".codeindex", "db")})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to open store", err)
		}
		st = opened
	}

	boundaries, err := boundary.Discover(cfg.ProjectRoot, nil)
	if err != nil {
		_ = st.Close()
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to discover project boundaries", err)
	}

	defaultProject := filepath.Base(cfg.ProjectRoot)
	if len(boundaries) > 0 {
		defaultProject = boundaries[0].Project
	}

	s := &Session{
		cfg:            cfg,
		root:           cfg.ProjectRoot,
		clk:            clk,
		store:          st,
		processor:      process.New(cfg.ProjectRoot, nil),
		tracker:        movetracker.New(st),
		parseCache:     parsecache.New(cfg.ParseCacheCapacity),
		defaultProject: defaultProject,
		boundaries:     boundaries,
	}
	s.graphCache = graphcache.New(s.buildGraph)

	if !cfg.watchMode() {
		s.role = ownership.Owner
		s.watcher = noop.Watcher{}
		s.coordinator = s.newCoordinator()
		s.coordinator.OnIndexed(s.onIndexed)
		if _, err := s.coordinator.FullIndex(context.Background()); err != nil {
			_ = st.Close()
			return nil, indexerrors.Wrap(indexerrors.Index, "initial scan failed", err)
		}
		return s, nil
	}

	s.arbiter = ownership.New(st, clk, cfg.LivenessProbe, cfg.StaleSeconds)
	s.health = health.New(health.Config{
		Arbiter:               s.arbiter,
		Clock:                 clk,
		PID:                   cfg.pid(),
		HealthCheckIntervalMs: cfg.HealthCheckIntervalMs,
		HeartbeatIntervalMs:   cfg.HeartbeatIntervalMs,
		MaxRetries:            cfg.MaxRetries,
		Promote:               s.promote,
		Demote:                s.demote,
		OnExhausted:           s.onExhausted,
	})

	role, err := s.arbiter.Acquire(context.Background(), cfg.pid())
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	s.role = role

	if role == ownership.Owner {
		if err := s.becomeOwner(context.Background()); err != nil {
			_ = st.Close()
			return nil, err
		}
	} else {
		s.health.StartReader()
	}

	s.registerSignalHandlers()
	return s, nil
}

// becomeOwner performs the initial (non-promotion) owner setup: build the
// coordinator and watcher, start the watcher and heartbeat, run the first
// full index.
func (s *Session) becomeOwner(ctx context.Context) error {
	c := s.newCoordinator()
	c.OnIndexed(s.onIndexed)

	w, err := fsnotify.New(s.root)
	if err != nil {
		return indexerrors.Wrap(indexerrors.Index, "failed to create watcher", err)
	}
	if err := w.Start(c.HandleWatcherEvent); err != nil {
		return indexerrors.Wrap(indexerrors.Index, "failed to start watcher", err)
	}

	s.health.StartHeartbeat()

	s.mu.Lock()
	s.coordinator = c
	s.watcher = w
	s.mu.Unlock()

	if _, err := c.FullIndex(ctx); err != nil {
		return indexerrors.Wrap(indexerrors.Index, "initial full index failed", err)
	}
	return nil
}

// promote implements HealthMonitor's steps b-e: build the promoted
// watcher+coordinator pair, re-subscribe every onIndexed callback, start
// the watcher, start the heartbeat (setting its handle before publishing
// the promoted references), then run a full index.
func (s *Session) promote(ctx context.Context) error {
	c := s.newCoordinator()
	c.OnIndexed(s.onIndexed)
	s.mu.RLock()
	for _, registered := range s.userCallbacks {
		c.OnIndexed(registered.cb)
	}
	s.mu.RUnlock()

	w, err := fsnotify.New(s.root)
	if err != nil {
		return indexerrors.Wrap(indexerrors.Index, "failed to create promoted watcher", err)
	}
	if err := w.Start(c.HandleWatcherEvent); err != nil {
		_ = w.Close()
		return indexerrors.Wrap(indexerrors.Index, "failed to start promoted watcher", err)
	}

	s.health.StartHeartbeat()

	s.mu.Lock()
	s.coordinator = c
	s.watcher = w
	s.role = ownership.Owner
	s.mu.Unlock()

	if _, err := c.FullIndex(ctx); err != nil {
		return indexerrors.Wrap(indexerrors.Index, "post-promotion full index failed", err)
	}
	logger.Info("session promoted to owner", logger.OwnerPID(s.cfg.pid()))
	return nil
}

// demote runs step f's best-effort rollback after a failed promotion.
func (s *Session) demote() {
	s.mu.Lock()
	w, c := s.watcher, s.coordinator
	s.watcher, s.coordinator = nil, nil
	s.role = ownership.Reader
	s.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			logger.Warn("failed to close watcher after failed promotion", logger.Err(err))
		}
	}
	if c != nil {
		if err := c.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shut down coordinator after failed promotion", logger.Err(err))
		}
	}
}

// onExhausted triggers a best-effort session close once the reader's
// healthcheck retries are exhausted.
func (s *Session) onExhausted() {
	logger.Error("healthcheck retries exhausted, closing session")
	if err := s.Close(); err != nil {
		logger.Error("session close after exhausted healthcheck failed", logger.Err(err))
	}
}

func (s *Session) newCoordinator() *coordinator.Coordinator {
	return coordinator.New(coordinator.Config{
		Root:           s.root,
		Store:          s.store,
		Processor:      s.processor,
		Tracker:        s.tracker,
		ParseCache:     s.parseCache,
		Boundaries:     s.Projects(),
		Extensions:     s.cfg.Extensions,
		IgnorePatterns: s.cfg.IgnorePatterns,
		Clock:          s.clk,
	})
}

// onIndexed is subscribed to every owner/promoted coordinator; it
// invalidates the graph cache and reports metrics.
func (s *Session) onIndexed(result *model.IndexResult) {
	s.graphCache.Invalidate()
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveRun(runKindOf(result), result)
	}
}

func runKindOf(result *model.IndexResult) string {
	if result.Transactional {
		return metrics.RunKindFull
	}
	return metrics.RunKindIncremental
}

func (s *Session) buildGraph(ctx context.Context, scope []string) (*graph.Graph, error) {
	return graph.Build(ctx, s.store, scope)
}

// Projects returns a fresh copy of the discovered boundary list; callers
// cannot mutate Session state through it.
func (s *Session) Projects() []model.ProjectBoundary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ProjectBoundary, len(s.boundaries))
	copy(out, s.boundaries)
	return out
}

func (s *Session) allProjectNames() []string {
	boundaries := s.Projects()
	names := make([]string, len(boundaries))
	for i, b := range boundaries {
		names[i] = b.Project
	}
	return names
}

func (s *Session) resolveProject(project string) string {
	if project != "" {
		return project
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultProject
}

func (s *Session) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return indexerrors.New(indexerrors.Closed, "session is closed")
	}
	return nil
}

// Reindex requests a full, transactional reindex. Returns the run's result.
func (s *Session) Reindex(ctx context.Context) (*model.IndexResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	c := s.coordinator
	s.mu.RUnlock()
	if c == nil {
		return nil, indexerrors.New(indexerrors.Closed, "session is not the owner")
	}
	return c.FullIndex(ctx)
}

// ParseSource parses relPath outside of any indexing run and caches the
// result, so a subsequent GetParsedAst call (or the next index run) reuses
// it instead of reparsing.
func (s *Session) ParseSource(relPath string) (*process.Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	result, err := s.processor.Process(relPath, "", process.Options{Boundaries: s.Projects()})
	if err != nil {
		return nil, err
	}
	s.parseCache.Put(relPath, result)
	return result, nil
}

// GetParsedAst returns the cached process.Result for relPath, if present.
func (s *Session) GetParsedAst(relPath string) (*process.Result, bool) {
	return s.parseCache.Get(relPath)
}

func (s *Session) graphFor(ctx context.Context, project string) (*graph.Graph, string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, "", err
	}
	project = s.resolveProject(project)
	g, err := s.graphCache.Get(ctx, project, s.allProjectNames())
	if err != nil {
		return nil, "", indexerrors.Wrap(indexerrors.Search, "failed to build dependency graph", err)
	}
	return g, project, nil
}

func pathOf(key graph.FileKey) string {
	_, path, ok := strings.Cut(string(key), "::")
	if !ok {
		return string(key)
	}
	return path
}

func toPaths(keys []graph.FileKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = pathOf(k)
	}
	return out
}

// GetDependencies returns file's direct outbound imports.
func (s *Session) GetDependencies(ctx context.Context, project, file string) ([]string, error) {
	g, project, err := s.graphFor(ctx, project)
	if err != nil {
		return nil, err
	}
	return toPaths(g.GetDependencies(graph.NewFileKey(project, file))), nil
}

// GetDependents returns file's direct inbound importers.
func (s *Session) GetDependents(ctx context.Context, project, file string) ([]string, error) {
	g, project, err := s.graphFor(ctx, project)
	if err != nil {
		return nil, err
	}
	return toPaths(g.GetDependents(graph.NewFileKey(project, file))), nil
}

// GetTransitiveDependencies returns every file forward-reachable from file.
func (s *Session) GetTransitiveDependencies(ctx context.Context, project, file string) ([]string, error) {
	g, project, err := s.graphFor(ctx, project)
	if err != nil {
		return nil, err
	}
	return toPaths(g.GetTransitiveDependencies(graph.NewFileKey(project, file))), nil
}

// GetAffectedByChange returns every file transitively depending on files.
func (s *Session) GetAffectedByChange(ctx context.Context, project string, files []string) ([]string, error) {
	g, project, err := s.graphFor(ctx, project)
	if err != nil {
		return nil, err
	}
	keys := make([]graph.FileKey, len(files))
	for i, f := range files {
		keys[i] = graph.NewFileKey(project, f)
	}
	return toPaths(g.GetAffectedByChange(keys)), nil
}

// HasCycle reports whether project's dependency graph has any cycle.
func (s *Session) HasCycle(ctx context.Context, project string) (bool, error) {
	g, _, err := s.graphFor(ctx, project)
	if err != nil {
		return false, err
	}
	return g.HasCycle(), nil
}

// GetCyclePaths returns every elementary cycle in project's dependency
// graph, each in canonical rotation, honouring maxCycles (0 = unbounded).
func (s *Session) GetCyclePaths(ctx context.Context, project string, maxCycles int) ([][]string, error) {
	g, _, err := s.graphFor(ctx, project)
	if err != nil {
		return nil, err
	}
	cycles := g.GetCyclePaths(graph.CycleOptions{MaxCycles: maxCycles})
	out := make([][]string, len(cycles))
	for i, cycle := range cycles {
		out[i] = toPaths(cycle)
	}
	return out, nil
}

// Stats returns the indexed file/symbol/relation counts for project (the
// default project when empty).
func (s *Session) Stats(ctx context.Context, project string) (model.FileStats, error) {
	if err := s.checkOpen(); err != nil {
		return model.FileStats{}, err
	}
	project = s.resolveProject(project)
	stats, err := s.store.GetStats(ctx, project)
	if err != nil {
		return model.FileStats{}, indexerrors.Wrap(indexerrors.Store, "failed to read project stats", err)
	}
	return stats, nil
}

// OnIndexed registers cb to run after every completed run, in addition to
// the Session's own graph-cache-invalidation and metrics hooks. Returns an
// unsubscribe function. Re-subscribed automatically across promotion.
func (s *Session) OnIndexed(cb coordinator.Callback) func() {
	s.mu.Lock()
	s.nextCallbackID++
	id := s.nextCallbackID
	s.userCallbacks = append(s.userCallbacks, registeredCallback{id: id, cb: cb})
	c := s.coordinator
	s.mu.Unlock()

	var unsub func()
	if c != nil {
		unsub = c.OnIndexed(cb)
	}
	return func() {
		s.mu.Lock()
		for i, registered := range s.userCallbacks {
			if registered.id == id {
				s.userCallbacks = append(s.userCallbacks[:i], s.userCallbacks[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	}
}

func (s *Session) registerSignalHandlers() {
	s.sigCh = make(chan os.Signal, 1)
	s.sigDone = make(chan struct{})
	signal.Notify(s.sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		select {
		case sig := <-s.sigCh:
			logger.Info("received shutdown signal", logger.Operation(sig.String()))
			if err := s.Close(); err != nil {
				logger.Error("close on signal failed", logger.Err(err))
			}
		case <-s.sigDone:
		}
	}()
}

// Close idempotently shuts down every subsystem in the required order:
// signal handlers, coordinator, watcher, timers, ownership release, store.
// Any step's error is collected into an aggregate; every step is still
// attempted.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	c, w, h, arbiter, st := s.coordinator, s.watcher, s.health, s.arbiter, s.store
	role := s.role
	pid := s.cfg.pid()
	sigCh, sigDone := s.sigCh, s.sigDone
	s.mu.Unlock()

	if sigCh != nil {
		signal.Stop(sigCh)
		close(sigDone)
	}

	var steps []error

	if c != nil {
		steps = append(steps, c.Shutdown(context.Background()))
	} else {
		steps = append(steps, nil)
	}

	if w != nil {
		steps = append(steps, w.Close())
	} else {
		steps = append(steps, nil)
	}

	if h != nil {
		h.Stop()
	}

	// Only the owner releases; Release itself also leaves alone a row
	// stamped with another instance's ID.
	if arbiter != nil && role == ownership.Owner {
		steps = append(steps, arbiter.Release(context.Background(), pid))
	} else {
		steps = append(steps, nil)
	}

	steps = append(steps, st.Close())

	return (&indexerrors.CloseError{Steps: steps}).OrNil()
}
