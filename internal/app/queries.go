package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"listings_portal/internal/domain"
)

const allListingsKey = "listings:all"

type QueryService struct {
	src      domain.ListingSource
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewQueryService wraps src with a read-through cache. A nil cache or a
// non-positive ttl disables caching.
func NewQueryService(src domain.ListingSource, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{src: src, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListListings(ctx context.Context, f domain.ListingFilter) []domain.Listing {
	var all []domain.Listing
	if s.caching() {
		if ok, _ := s.cache.Get(ctx, allListingsKey, &all); ok {
			return filterListings(all, f)
		}
	}

	all = s.src.ListAll(ctx)
	// an empty index may be a degraded CRM call; don't pin it
	if s.caching() && len(all) > 0 {
		_ = s.cache.Set(ctx, allListingsKey, all, int(s.cacheTTL.Seconds()))
	}
	return filterListings(all, f)
}

func (s *QueryService) GetListing(ctx context.Context, id int64) *domain.Listing {
	key := fmt.Sprintf("listing:%d", id)
	if s.caching() {
		var l domain.Listing
		if ok, _ := s.cache.Get(ctx, key, &l); ok {
			return &l
		}
	}

	l := s.src.GetByID(ctx, id)
	if l != nil && s.caching() {
		_ = s.cache.Set(ctx, key, *l, int(s.cacheTTL.Seconds()))
	}
	return l
}

func (s *QueryService) caching() bool {
	return s.cache != nil && s.cacheTTL >= time.Second
}

// filterListings always returns a fresh slice so callers never alias cached data.
func filterListings(in []domain.Listing, f domain.ListingFilter) []domain.Listing {
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		if f.Type != "" && !strings.EqualFold(l.Type, f.Type) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(l.Status, f.Status) {
			continue
		}
		out = append(out, l)
	}
	return out
}
