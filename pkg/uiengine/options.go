// Package uiengine turns a node type's declarative UI schema into an
// interactive, validated configuration session with dynamically fetched
// option lists.
package uiengine

import (
	"context"
	"log/slog"
	"sync"
)

// OptionSource fetches an option list from an external endpoint keyed by a
// governing field's value, e.g. the model list for a given service.
type OptionSource interface {
	Fetch(ctx context.Context, endpoint, key string) ([]string, error)
}

// OptionSourceFunc adapts a function to the OptionSource interface.
type OptionSourceFunc func(ctx context.Context, endpoint, key string) ([]string, error)

func (f OptionSourceFunc) Fetch(ctx context.Context, endpoint, key string) ([]string, error) {
	return f(ctx, endpoint, key)
}

func cacheKey(endpoint, key string) string {
	return endpoint + "/" + key
}

// OptionResolver caches fetched option sets by (endpoint, key) and
// serializes concurrent interest in the same key into a single fetch.
// Responses for different keys never clobber each other's entries: a late
// response for a key the user has moved away from still lands in that key's
// cache for future reuse, while the caller decides whether it may touch UI
// state.
type OptionResolver struct {
	mu       sync.Mutex
	source   OptionSource
	logger   *slog.Logger
	cache    map[string][]string
	inflight map[string][]func(options []string, fetched bool)
}

// NewOptionResolver creates a resolver over the given source. The resolver
// is explicitly scoped: construct one per editor session and drop it on
// workflow switch, so option sets never leak across workflows.
func NewOptionResolver(source OptionSource, logger *slog.Logger) *OptionResolver {
	return &OptionResolver{
		source:   source,
		logger:   logger,
		cache:    make(map[string][]string),
		inflight: make(map[string][]func(options []string, fetched bool)),
	}
}

// Cached returns the cached option set for a key, if present.
func (r *OptionResolver) Cached(endpoint, key string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	options, ok := r.cache[cacheKey(endpoint, key)]

	return options, ok
}

// Loading reports whether a fetch for the key is outstanding.
func (r *OptionResolver) Loading(endpoint, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.inflight[cacheKey(endpoint, key)]

	return ok
}

// Resolve delivers the option set for a key to apply. Cached keys are
// delivered synchronously. Otherwise a fetch is started (or joined, if one
// for the same key is already outstanding) and apply runs when it lands,
// with fetched=true only when the list actually arrived; a failed fetch
// delivers an empty list with fetched=false and is not cached, so the key
// can be retried later.
func (r *OptionResolver) Resolve(ctx context.Context, endpoint, key string, apply func(options []string, fetched bool)) {
	ck := cacheKey(endpoint, key)

	r.mu.Lock()

	if options, ok := r.cache[ck]; ok {
		r.mu.Unlock()
		apply(options, true)

		return
	}

	if waiters, ok := r.inflight[ck]; ok {
		r.inflight[ck] = append(waiters, apply)
		r.mu.Unlock()

		return
	}

	r.inflight[ck] = []func([]string, bool){apply}
	r.mu.Unlock()

	go r.fetch(ctx, endpoint, key, ck)
}

func (r *OptionResolver) fetch(ctx context.Context, endpoint, key, ck string) {
	options, err := r.source.Fetch(ctx, endpoint, key)
	fetched := err == nil

	if err != nil {
		// Option lists are a non-critical read: degrade to an empty list.
		r.logger.Warn("Failed to fetch option set", "endpoint", endpoint, "key", key, "error", err)

		options = nil
	}

	r.mu.Lock()

	if fetched {
		r.cache[ck] = options
	}

	waiters := r.inflight[ck]
	delete(r.inflight, ck)

	r.mu.Unlock()

	for _, waiter := range waiters {
		waiter(options, fetched)
	}
}

// Prime seeds the cache for a key, bypassing the source. Used by tests and
// by hydration when the backend ships option sets inline.
func (r *OptionResolver) Prime(endpoint, key string, options []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache[cacheKey(endpoint, key)] = options
}
