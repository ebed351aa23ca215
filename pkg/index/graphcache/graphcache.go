// Package graphcache implements a keyed cache of the most recently built
// dependency graph per scope, invalidated whole on every onIndexed
// emission. It uses a mutex-guarded map: a miss builds the graph outside the
// lock and then stores it, so concurrent misses on one key may each build.
// The whole cache is invalidated at once since no partial eviction is needed.
package graphcache

import (
	"context"
	"sync"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/graph"
)

const crossProjectKey = "__cross__"

// Builder builds a DependencyGraph for scope (every project in scope's
// "imports" and "re-exports" relations). An empty scope slice is the Cache's signal to build
// the cross-project graph over every known project.
type Builder func(ctx context.Context, scope []string) (*graph.Graph, error)

// Cache holds the most recently built graph per scope key. project=="" is
// the cross-project key; any other value is a single-project key.
type Cache struct {
	mu      sync.RWMutex
	build   Builder
	entries map[string]*graph.Graph
}

// New constructs a Cache that calls build to materialize a graph on a
// cache miss.
func New(build Builder) *Cache {
	return &Cache{build: build, entries: make(map[string]*graph.Graph)}
}

func keyFor(project string) string {
	if project == "" {
		return crossProjectKey
	}
	return project
}

// Get returns the cached graph for project, building and storing one on a
// miss. allProjects is used only on a cross-project miss (project=="").
func (c *Cache) Get(ctx context.Context, project string, allProjects []string) (*graph.Graph, error) {
	key := keyFor(project)

	c.mu.RLock()
	g, hit := c.entries[key]
	c.mu.RUnlock()
	if hit {
		logger.Debug("graph cache hit", logger.CacheKey(key), logger.CacheHit(true))
		return g, nil
	}

	scope := allProjects
	if project != "" {
		scope = []string{project}
	}
	g, err := c.build(ctx, scope)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = g
	c.mu.Unlock()
	logger.Debug("graph cache miss, built graph", logger.CacheKey(key), logger.CacheHit(false))
	return g, nil
}

// Invalidate drops every cached graph. Called on every onIndexed emission,
// by both the owner and any promoted-owner coordinator.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]*graph.Graph)
	c.mu.Unlock()
}
