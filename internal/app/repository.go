package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"listings_portal/internal/adapters/observability"
	"listings_portal/internal/domain"
)

// standard fields plus every user field of the smart process
var listingSelect = []string{"*", "ufCrm_*"}

// ListingRepository reads listings from the CRM. Transport failures never reach
// the caller: ListAll degrades to an empty slice and GetByID to nil.
// Nothing is retried.
type ListingRepository struct {
	crm          domain.CRMClient
	mapper       *FieldMapper
	entityTypeID int
	timeout      time.Duration
}

func NewListingRepository(crm domain.CRMClient, layout domain.FieldLayout, timeout time.Duration) *ListingRepository {
	return &ListingRepository{
		crm:          crm,
		mapper:       NewFieldMapper(layout),
		entityTypeID: layout.EntityTypeID,
		timeout:      timeout,
	}
}

func (r *ListingRepository) ListAll(ctx context.Context) []domain.Listing {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	raws, err := r.crm.ListItems(ctx, r.entityTypeID, listingSelect)
	if err != nil {
		log.Error().Err(err).Int("entity_type_id", r.entityTypeID).Msg("crm list failed; serving empty index")
		observability.ObserveListing("list", "degraded")
		return []domain.Listing{}
	}
	log.Debug().Int("entity_type_id", r.entityTypeID).Int("items", len(raws)).Msg("crm list received")

	out := make([]domain.Listing, 0, len(raws))
	for i, raw := range raws {
		l, err := r.mapper.Normalize(raw)
		if err != nil {
			log.Warn().Err(err).Int("position", i).Msg("listing dropped")
			observability.ObserveListing("list", "malformed")
			continue
		}
		if l == nil {
			observability.ObserveListing("list", "empty")
			continue
		}
		out = append(out, *l)
	}
	observability.ObserveListing("list", "ok")
	return out
}

// GetByID returns nil both for a missing item and for a failed call.
func (r *ListingRepository) GetByID(ctx context.Context, id int64) *domain.Listing {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	resp, err := r.crm.GetItem(ctx, r.entityTypeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info().Int64("id", id).Msg("crm item not found")
			observability.ObserveListing("get", "not_found")
		} else {
			log.Error().Err(err).Int64("id", id).Msg("crm get failed")
			observability.ObserveListing("get", "degraded")
		}
		return nil
	}

	raw, shape := unwrapItem(resp)
	l, err := r.mapper.Normalize(raw)
	if err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("listing dropped")
		observability.ObserveListing("get", "malformed")
		return nil
	}
	if l == nil {
		log.Info().Int64("id", id).Str("shape", shape.String()).Msg("crm returned an empty item")
		observability.ObserveListing("get", "empty")
		return nil
	}
	observability.ObserveListing("get", "ok")
	return l
}

func (r *ListingRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

/********** crm.item.get response shapes **********/

type itemShape int

const (
	shapeEmpty   itemShape = iota // nothing usable
	shapeWrapped                  // {"item": {...}}
	shapeBare                     // the record itself
)

func (s itemShape) String() string {
	switch s {
	case shapeWrapped:
		return "wrapped"
	case shapeBare:
		return "bare"
	default:
		return "empty"
	}
}

func unwrapItem(resp map[string]any) (domain.RawRecord, itemShape) {
	if len(resp) == 0 {
		return nil, shapeEmpty
	}
	item, ok := resp["item"]
	if !ok {
		return resp, shapeBare
	}
	if rec, ok := item.(map[string]any); ok && len(rec) > 0 {
		return rec, shapeWrapped
	}
	return nil, shapeEmpty
}
