package uiengine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateSource blocks each fetch until released, so tests control when
// responses arrive.
type gateSource struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	results map[string][]string
	errs    map[string]error
	calls   atomic.Int64
}

func newGateSource() *gateSource {
	return &gateSource{
		gates:   make(map[string]chan struct{}),
		results: make(map[string][]string),
		errs:    make(map[string]error),
	}
}

func (s *gateSource) gate(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[key]
	if !ok {
		g = make(chan struct{})
		s.gates[key] = g
	}

	return g
}

func (s *gateSource) release(key string) {
	close(s.gate(key))
}

func (s *gateSource) set(key string, options []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[key] = options
}

func (s *gateSource) fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errs[key] = err
}

func (s *gateSource) Fetch(_ context.Context, _, key string) ([]string, error) {
	s.calls.Add(1)
	<-s.gate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[key]; err != nil {
		return nil, err
	}

	return s.results[key], nil
}

func collect(t *testing.T) (func(options []string, fetched bool), chan struct{}, *[]string, *bool) {
	t.Helper()

	done := make(chan struct{})

	var (
		got     []string
		fetched bool
	)

	apply := func(options []string, ok bool) {
		got = options
		fetched = ok

		close(done)
	}

	return apply, done, &got, &fetched
}

func await(t *testing.T, done chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("apply callback never ran")
	}
}

func TestOptionResolver_FetchesAndCaches(t *testing.T) {
	source := newGateSource()
	source.set("openai", []string{"gpt-4o", "gpt-4.1"})

	resolver := NewOptionResolver(source, slog.Default())

	apply, done, got, fetched := collect(t)
	resolver.Resolve(context.Background(), "models", "openai", apply)

	assert.True(t, resolver.Loading("models", "openai"))

	source.release("openai")
	await(t, done)

	assert.True(t, *fetched)
	assert.Equal(t, []string{"gpt-4o", "gpt-4.1"}, *got)

	cached, ok := resolver.Cached("models", "openai")
	require.True(t, ok)
	assert.Equal(t, []string{"gpt-4o", "gpt-4.1"}, cached)
	assert.False(t, resolver.Loading("models", "openai"))

	// A second resolve is served from cache without another fetch.
	apply2, done2, got2, _ := collect(t)
	resolver.Resolve(context.Background(), "models", "openai", apply2)
	await(t, done2)

	assert.Equal(t, []string{"gpt-4o", "gpt-4.1"}, *got2)
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestOptionResolver_SingleFlight(t *testing.T) {
	source := newGateSource()
	source.set("openai", []string{"gpt-4o"})

	resolver := NewOptionResolver(source, slog.Default())

	apply1, done1, _, _ := collect(t)
	apply2, done2, got2, _ := collect(t)

	resolver.Resolve(context.Background(), "models", "openai", apply1)
	resolver.Resolve(context.Background(), "models", "openai", apply2)

	source.release("openai")
	await(t, done1)
	await(t, done2)

	// Both waiters were served by one upstream call.
	assert.Equal(t, int64(1), source.calls.Load())
	assert.Equal(t, []string{"gpt-4o"}, *got2)
}

func TestOptionResolver_DistinctKeysDoNotClobber(t *testing.T) {
	source := newGateSource()
	source.set("openai", []string{"gpt-4o"})
	source.set("anthropic", []string{"claude"})

	resolver := NewOptionResolver(source, slog.Default())

	applyA, doneA, _, _ := collect(t)
	applyB, doneB, _, _ := collect(t)

	resolver.Resolve(context.Background(), "models", "openai", applyA)
	resolver.Resolve(context.Background(), "models", "anthropic", applyB)

	// The second request resolves first; the late first response must still
	// land under its own key.
	source.release("anthropic")
	await(t, doneB)

	source.release("openai")
	await(t, doneA)

	openai, ok := resolver.Cached("models", "openai")
	require.True(t, ok)
	assert.Equal(t, []string{"gpt-4o"}, openai)

	anthropic, ok := resolver.Cached("models", "anthropic")
	require.True(t, ok)
	assert.Equal(t, []string{"claude"}, anthropic)
}

func TestOptionResolver_FailureNotCached(t *testing.T) {
	source := newGateSource()
	source.fail("openai", errors.New("upstream down"))

	resolver := NewOptionResolver(source, slog.Default())

	apply, done, got, fetched := collect(t)
	resolver.Resolve(context.Background(), "models", "openai", apply)

	source.release("openai")
	await(t, done)

	assert.False(t, *fetched)
	assert.Empty(t, *got)

	// The failure was not cached, so the key is retryable.
	_, ok := resolver.Cached("models", "openai")
	assert.False(t, ok)
}

func TestOptionResolver_Prime(t *testing.T) {
	resolver := NewOptionResolver(newGateSource(), slog.Default())
	resolver.Prime("models", "openai", []string{"gpt-4o"})

	cached, ok := resolver.Cached("models", "openai")
	require.True(t, ok)
	assert.Equal(t, []string{"gpt-4o"}, cached)
}
