// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/repopulse/repopulse/internal/cache"
	"github.com/repopulse/repopulse/internal/domain"
	"github.com/repopulse/repopulse/internal/gateway"
	"github.com/repopulse/repopulse/internal/render"
)

// cacheTTL is how long a cache record satisfies a load without touching
// the network. The comparison is strict: a record exactly this old is
// already expired.
const cacheTTL = 30 * time.Minute

// Source identifies where the rendered snapshot came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Provider produces a StatsSnapshot and pushes it to the presentation
// layer: cache first, then the remote endpoint, then fixed fallback
// values on total failure. Every failure inside the pipeline is absorbed
// here; nothing propagates to the caller or the user.
type Provider struct {
	owner string
	repo  string

	store    *cache.Store
	fetcher  gateway.Fetcher
	renderer render.Renderer
	logger   *log.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewProvider creates a provider bound to a single repository.
func NewProvider(owner, repo string, store *cache.Store, fetcher gateway.Fetcher, renderer render.Renderer, logger *log.Logger) *Provider {
	return &Provider{
		owner:    owner,
		repo:     repo,
		store:    store,
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// Load runs the pipeline: a valid cache record renders directly without a
// network call; otherwise the snapshot is fetched, cached, and rendered.
// On any failure the fixed fallback snapshot is rendered instead and
// nothing is written to the cache. The returned Source reports which path
// was taken.
func (p *Provider) Load(ctx context.Context) Source {
	if snapshot, ok := p.readCache(); ok {
		p.logger.Debug("serving stats from cache", "repo", p.slug())
		p.renderer.Render(snapshot)
		return SourceCache
	}
	return p.Refresh(ctx)
}

// Refresh bypasses the cache read and goes straight to the remote fetch.
// It backs the debug refresh surface.
func (p *Provider) Refresh(ctx context.Context) Source {
	snapshot, err := p.fetcher.FetchRepoStats(ctx, p.owner, p.repo)
	if err != nil {
		p.logger.Debug("remote fetch failed, using fallback values", "repo", p.slug(), "err", err)
		p.renderer.Render(domain.Fallback())
		return SourceFallback
	}

	record := domain.NewCacheRecord(snapshot, p.now())
	if err := p.store.Set(p.CacheKey(), record); err != nil {
		// A cache write failure never blocks rendering.
		p.logger.Debug("cache write failed", "repo", p.slug(), "err", err)
	}

	p.renderer.Render(snapshot)
	return SourceRemote
}

// readCache returns the cached snapshot if a valid record exists. An
// absent, malformed, or expired record reads as "no record"; only expiry
// deletes the key as a side effect.
func (p *Provider) readCache() (domain.StatsSnapshot, bool) {
	record, ok := p.store.Get(p.CacheKey())
	if !ok {
		return domain.StatsSnapshot{}, false
	}
	if !record.ValidAt(p.now(), cacheTTL) {
		p.logger.Debug("cache record expired, evicting", "repo", p.slug(), "age", record.Age(p.now()))
		if err := p.store.Delete(p.CacheKey()); err != nil {
			p.logger.Debug("cache eviction failed", "repo", p.slug(), "err", err)
		}
		return domain.StatsSnapshot{}, false
	}
	return record.Data, true
}

// CacheKey is the single dedicated store key for this provider's repository.
func (p *Provider) CacheKey() string {
	return strings.ToLower(fmt.Sprintf("%s-%s", p.owner, p.repo))
}

func (p *Provider) slug() string {
	return p.owner + "/" + p.repo
}
