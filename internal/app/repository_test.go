package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings_portal/internal/domain"
)

type fakeCRM struct {
	items    []map[string]any
	item     map[string]any
	listErr  error
	getErr   error
	calls    int
	gotType  int
	gotSel   []string
	gotID    int64
	deadline bool
}

func (f *fakeCRM) ListItems(ctx context.Context, entityTypeID int, selectFields []string) ([]map[string]any, error) {
	f.calls++
	f.gotType, f.gotSel = entityTypeID, selectFields
	_, f.deadline = ctx.Deadline()
	return f.items, f.listErr
}

func (f *fakeCRM) GetItem(ctx context.Context, entityTypeID int, id int64) (map[string]any, error) {
	f.calls++
	f.gotType, f.gotID = entityTypeID, id
	_, f.deadline = ctx.Deadline()
	return f.item, f.getErr
}

func newRepo(crm domain.CRMClient) *ListingRepository {
	return NewListingRepository(crm, domain.DefaultLayout(), 5*time.Second)
}

func TestListAll_MapsFiltersAndKeepsOrder(t *testing.T) {
	f := layout.Fields
	crm := &fakeCRM{items: []map[string]any{
		{"id": json.Number("3"), f.Price: "10|BRL"},
		{},
		{"id": json.Number("1"), f.Price: "oops|BRL"},
		nil,
		{"id": json.Number("2"), f.Type: "2849"},
	}}

	got := newRepo(crm).ListAll(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "3", *got[0].ID)
	assert.Equal(t, "10,00", got[0].Price)
	assert.Equal(t, "2", *got[1].ID)
	assert.Equal(t, "2 DORM", got[1].Type)

	assert.Equal(t, 1, crm.calls)
	assert.Equal(t, 1138, crm.gotType)
	assert.Equal(t, []string{"*", "ufCrm_*"}, crm.gotSel)
	assert.True(t, crm.deadline, "remote call is bounded by a timeout")
}

func TestListAll_TransportFailureIsEmpty(t *testing.T) {
	crm := &fakeCRM{listErr: &domain.TransportError{Method: "crm.item.list", Status: 503}}

	got := newRepo(crm).ListAll(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, crm.calls, "no retry")
}

func TestListAll_NoItems(t *testing.T) {
	got := newRepo(&fakeCRM{}).ListAll(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetByID_Shapes(t *testing.T) {
	f := layout.Fields
	record := map[string]any{"id": json.Number("8"), f.Status: "2851"}

	tests := []struct {
		name string
		resp map[string]any
		want *string
	}{
		{"wrapped", map[string]any{"item": record}, strPtr("8")},
		{"bare", record, strPtr("8")},
		{"item null", map[string]any{"item": nil}, nil},
		{"item empty", map[string]any{"item": map[string]any{}}, nil},
		{"empty response", map[string]any{}, nil},
		{"nil response", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := &fakeCRM{item: tt.resp}
			got := newRepo(crm).GetByID(context.Background(), 8)
			assert.Equal(t, int64(8), crm.gotID)
			assert.True(t, crm.deadline)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got.ID)
			assert.Equal(t, "EM OBRA", got.Status)
		})
	}
}

func TestGetByID_NotFoundAndFailureBothNil(t *testing.T) {
	for name, err := range map[string]error{
		"not found": &domain.TransportError{Method: "crm.item.get", Code: "NOT_FOUND", Err: domain.ErrNotFound},
		"failure":   errors.New("connection reset"),
	} {
		t.Run(name, func(t *testing.T) {
			crm := &fakeCRM{getErr: err}
			assert.Nil(t, newRepo(crm).GetByID(context.Background(), 1))
			assert.Equal(t, 1, crm.calls)
		})
	}
}

func TestGetByID_MalformedPriceIsNil(t *testing.T) {
	crm := &fakeCRM{item: map[string]any{"item": map[string]any{"id": "1", layout.Fields.Price: "n/a|BRL"}}}
	assert.Nil(t, newRepo(crm).GetByID(context.Background(), 1))
}

func TestUnwrapItem(t *testing.T) {
	rec := map[string]any{"id": "1"}
	tests := []struct {
		name  string
		resp  map[string]any
		shape itemShape
		empty bool
	}{
		{"wrapped", map[string]any{"item": rec}, shapeWrapped, false},
		{"bare", rec, shapeBare, false},
		{"item not an object", map[string]any{"item": "x"}, shapeEmpty, true},
		{"nil", nil, shapeEmpty, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, shape := unwrapItem(tt.resp)
			assert.Equal(t, tt.shape, shape)
			assert.Equal(t, tt.empty, len(raw) == 0)
			assert.NotEmpty(t, shape.String())
		})
	}
}

func TestRepository_NoTimeoutWhenDisabled(t *testing.T) {
	crm := &fakeCRM{}
	NewListingRepository(crm, domain.DefaultLayout(), 0).ListAll(context.Background())
	assert.False(t, crm.deadline)
}

func strPtr(s string) *string { return &s }
