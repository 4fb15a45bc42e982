package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/repopulse/repopulse/internal/cache"
	"github.com/repopulse/repopulse/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It lets us exercise the pipeline without real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchRepoStats(ctx context.Context, owner, repo string) (domain.StatsSnapshot, error) {
	args := m.Called(ctx, owner, repo)
	return args.Get(0).(domain.StatsSnapshot), args.Error(1)
}

// mockRenderer records every snapshot pushed to the presentation layer.
type mockRenderer struct {
	rendered []domain.StatsSnapshot
}

func (m *mockRenderer) Render(snapshot domain.StatsSnapshot) {
	m.rendered = append(m.rendered, snapshot)
}

// newTestProvider wires a provider with a real temp-dir store, a mocked
// fetcher, and a recording renderer.
func newTestProvider(t *testing.T) (*Provider, *mockFetcher, *mockRenderer, *cache.Store) {
	t.Helper()
	logger := log.New(io.Discard)
	store, err := cache.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	fetcher := new(mockFetcher)
	renderer := new(mockRenderer)
	provider := NewProvider("any-owner", "any-repo", store, fetcher, renderer, logger)
	return provider, fetcher, renderer, store
}

func TestProvider_Load_ColdStart(t *testing.T) {
	provider, fetcher, renderer, store := newTestProvider(t)
	snap := domain.StatsSnapshot{Stars: 500, Forks: 20, Watchers: 5, OpenIssues: 2}
	fetcher.On("FetchRepoStats", mock.Anything, "any-owner", "any-repo").Return(snap, nil).Once()

	source := provider.Load(context.Background())

	assert.Equal(t, SourceRemote, source)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, snap, renderer.rendered[0])

	// The fetched snapshot was persisted with the four values.
	record, ok := store.Get(provider.CacheKey())
	require.True(t, ok)
	assert.Equal(t, snap, record.Data)
	fetcher.AssertExpectations(t)
}

func TestProvider_Load_WarmCache(t *testing.T) {
	provider, fetcher, renderer, store := newTestProvider(t)
	snap := domain.StatsSnapshot{Stars: 12345, Forks: 879, Watchers: 168, OpenIssues: 3}
	require.NoError(t, store.Set(provider.CacheKey(), domain.NewCacheRecord(snap, time.Now())))

	source := provider.Load(context.Background())

	assert.Equal(t, SourceCache, source)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, snap, renderer.rendered[0])
	// Zero network calls were made.
	fetcher.AssertNotCalled(t, "FetchRepoStats", mock.Anything, mock.Anything, mock.Anything)
}

// TestProvider_Load_Idempotent verifies repeated loads inside the validity
// window never trigger a second fetch.
func TestProvider_Load_Idempotent(t *testing.T) {
	provider, fetcher, renderer, _ := newTestProvider(t)
	snap := domain.StatsSnapshot{Stars: 1, Forks: 2, Watchers: 3, OpenIssues: 4}
	fetcher.On("FetchRepoStats", mock.Anything, "any-owner", "any-repo").Return(snap, nil).Once()

	assert.Equal(t, SourceRemote, provider.Load(context.Background()))
	assert.Equal(t, SourceCache, provider.Load(context.Background()))
	assert.Equal(t, SourceCache, provider.Load(context.Background()))

	assert.Len(t, renderer.rendered, 3)
	fetcher.AssertExpectations(t)
}

func TestProvider_Load_FetchFailure(t *testing.T) {
	provider, fetcher, renderer, store := newTestProvider(t)
	fetcher.On("FetchRepoStats", mock.Anything, "any-owner", "any-repo").
		Return(domain.StatsSnapshot{}, errors.New("HTTP 500")).Once()

	source := provider.Load(context.Background())

	assert.Equal(t, SourceFallback, source)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, domain.StatsSnapshot{Stars: 10200, Forks: 879, Watchers: 168, OpenIssues: 0}, renderer.rendered[0])

	// No cache write on failure.
	_, ok := store.Get(provider.CacheKey())
	assert.False(t, ok)
	fetcher.AssertExpectations(t)
}

// TestProvider_Load_ExpiryBoundary pins the strict 30-minute comparison:
// a record exactly at the threshold is expired, evicted, and refetched.
func TestProvider_Load_ExpiryBoundary(t *testing.T) {
	provider, fetcher, renderer, store := newTestProvider(t)
	now := time.Now()
	provider.now = func() time.Time { return now }

	cached := domain.StatsSnapshot{Stars: 111, Forks: 1, Watchers: 1, OpenIssues: 1}
	require.NoError(t, store.Set(provider.CacheKey(), domain.NewCacheRecord(cached, now.Add(-cacheTTL))))

	fresh := domain.StatsSnapshot{Stars: 222, Forks: 2, Watchers: 2, OpenIssues: 2}
	fetcher.On("FetchRepoStats", mock.Anything, "any-owner", "any-repo").Return(fresh, nil).Once()

	source := provider.Load(context.Background())

	assert.Equal(t, SourceRemote, source)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, fresh, renderer.rendered[0])
	fetcher.AssertExpectations(t)
}

func TestProvider_Load_ExpiredRecordIsEvicted(t *testing.T) {
	provider, fetcher, renderer, store := newTestProvider(t)
	now := time.Now()
	provider.now = func() time.Time { return now }

	require.NoError(t, store.Set(provider.CacheKey(),
		domain.NewCacheRecord(domain.StatsSnapshot{Stars: 9}, now.Add(-45*time.Minute))))

	// The fetch also fails, so nothing overwrites the key; eviction alone
	// must have removed it.
	fetcher.On("FetchRepoStats", mock.Anything, "any-owner", "any-repo").
		Return(domain.StatsSnapshot{}, errors.New("network down")).Once()

	source := provider.Load(context.Background())
	assert.Equal(t, SourceFallback, source)
	assert.Len(t, renderer.rendered, 1)

	_, ok := store.Get(provider.CacheKey())
	assert.False(t, ok)
}

func TestProvider_Refresh_BypassesValidCache(t *testing.T) {
	provider, fetcher, renderer, store := newTestProvider(t)
	cached := domain.StatsSnapshot{Stars: 111, Forks: 1, Watchers: 1, OpenIssues: 1}
	require.NoError(t, store.Set(provider.CacheKey(), domain.NewCacheRecord(cached, time.Now())))

	fresh := domain.StatsSnapshot{Stars: 222, Forks: 2, Watchers: 2, OpenIssues: 2}
	fetcher.On("FetchRepoStats", mock.Anything, "any-owner", "any-repo").Return(fresh, nil).Once()

	source := provider.Refresh(context.Background())

	assert.Equal(t, SourceRemote, source)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, fresh, renderer.rendered[0])

	record, ok := store.Get(provider.CacheKey())
	require.True(t, ok)
	assert.Equal(t, fresh, record.Data)
	fetcher.AssertExpectations(t)
}
