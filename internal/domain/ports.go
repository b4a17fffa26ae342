package domain

import "context"

// CRMClient is the read side of the Bitrix24 webhook API.
type CRMClient interface {
	// ListItems returns every item of the entity type, in CRM order.
	ListItems(ctx context.Context, entityTypeID int, selectFields []string) ([]map[string]any, error)
	// GetItem returns the "result" payload of crm.item.get, which may wrap the record under "item".
	GetItem(ctx context.Context, entityTypeID int, id int64) (map[string]any, error)
}

type ListingSource interface {
	ListAll(ctx context.Context) []Listing
	GetByID(ctx context.Context, id int64) *Listing
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ListingArchive persists normalized listings captured by snapshot runs.
type ListingArchive interface {
	BeginRun(ctx context.Context) (string, error)
	UpsertListing(ctx context.Context, runID string, l Listing) error
	FinishRun(ctx context.Context, runID string, stored, skipped int) error
	LatestListings(ctx context.Context, limit int) ([]Listing, error)
	GetListing(ctx context.Context, id string) (Listing, error)
}
