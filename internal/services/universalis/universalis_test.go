package universalis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xivmarket/internal/errx"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *UniversalisService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewUniversalisService(srv.URL, 5*time.Second, 0)
}

func TestCurrentListingsSingleItem(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Excalibur/5116", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("listings"))
		assert.Equal(t, "0", r.URL.Query().Get("entriesWithin"))
		assert.Equal(t, "false", r.URL.Query().Get("hq"))
		w.Write([]byte(`{"itemID":5116,"worldName":"Excalibur","listings":[{"pricePerUnit":12,"quantity":99,"hq":false}]}`))
	})

	got, err := svc.CurrentListings(context.Background(), "Excalibur", []int{5116}, 10, NQ)
	require.NoError(t, err)
	require.Contains(t, got, 5116)
	assert.Equal(t, 12, got[5116].Listings[0].PricePerUnit)
	assert.Equal(t, 99, got[5116].Listings[0].Quantity)
}

func TestCurrentListingsMultiItem(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Primal/5116,5057", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("hq"))
		w.Write([]byte(`{"itemIDs":[5116,5057],"items":{
			"5116":{"itemID":5116,"listings":[{"pricePerUnit":12,"quantity":1,"worldName":"Behemoth"}]},
			"5057":{"itemID":5057,"listings":[]}}}`))
	})

	got, err := svc.CurrentListings(context.Background(), "Primal", []int{5116, 5057}, 1, AnyQuality)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Behemoth", got[5116].Listings[0].WorldName)
	assert.Empty(t, got[5057].Listings)
}

func TestCurrentListingsMissingItemIsNotFound(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"itemIDs":[1,2],"items":{"1":{"itemID":1}},"unresolvedItems":[2]}`))
	})

	_, err := svc.CurrentListings(context.Background(), "Primal", []int{1, 2}, 1, HQ)
	assert.ErrorIs(t, err, errx.ErrNotFound)
}

func TestHistoryVelocity(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/Excalibur/5116", r.URL.Path)
		w.Write([]byte(`{"itemID":5116,"regularSaleVelocity":42.6,"entries":[{"pricePerUnit":10,"quantity":3,"hq":true}]}`))
	})

	got, err := svc.History(context.Background(), "Excalibur", []int{5116})
	require.NoError(t, err)
	assert.InDelta(t, 42.6, got[5116].RegularSaleVelocity, 1e-9)
	assert.True(t, got[5116].Entries[0].HQ)
}

func TestHistoryWithinWindow(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/Light/5116", r.URL.Path)
		assert.Equal(t, "604800", r.URL.Query().Get("entriesWithin"))
		w.Write([]byte(`{"itemID":5116,"entries":[{"pricePerUnit":10,"quantity":3},{"pricePerUnit":20,"quantity":1,"hq":true}]}`))
	})

	got, err := svc.HistoryWithin(context.Background(), "Light", 5116, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
}

func TestInvalidResponses(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"empty body":   func(w http.ResponseWriter, r *http.Request) {},
		"empty object": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) },
		"bad json":     func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"itemID":`)) },
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(t, handler)
			_, err := svc.History(context.Background(), "Excalibur", []int{5116})
			assert.ErrorIs(t, err, errx.ErrInvalidResponse)
		})
	}
}

func TestTooManyItems(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	ids := make([]int, MaxItemsPerRequest+1)
	_, err := svc.History(context.Background(), "Excalibur", ids)
	assert.Error(t, err)

	got, err := svc.History(context.Background(), "Excalibur", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWorldsAndDataCenters(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/worlds":
			w.Write([]byte(`[{"id":93,"name":"Excalibur"},{"id":73,"name":"Adamantoise"}]`))
		case "/data-centers":
			w.Write([]byte(`[{"name":"Primal","region":"North-America","worlds":[93]}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	worlds, err := svc.Worlds(context.Background())
	require.NoError(t, err)
	assert.Len(t, worlds, 2)
	assert.Equal(t, "Excalibur", worlds[0].Name)

	dcs, err := svc.DataCenters(context.Background())
	require.NoError(t, err)
	require.Len(t, dcs, 1)
	assert.Equal(t, []int{93}, dcs[0].Worlds)
}
