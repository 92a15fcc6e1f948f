package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotscope/lotscope/pkg/types"
)

func record(folio, city, code string, lot float64) types.PropertyRecord {
	return types.PropertyRecord{
		Folio:       folio,
		City:        city,
		County:      "Miami-Dade",
		LandUseCode: code,
		LotSizeSqft: lot,
	}
}

func TestStoreCreateGetDelete(t *testing.T) {
	store := NewMemoryStore(10)

	ds := store.Create([]types.PropertyRecord{record("01-1234", "Miami", "0081", 7500)},
		types.PropertySearchParams{County: types.CountyMiamiDade}, "vacant lots in Miami")

	require.NotEmpty(t, ds.ID)
	assert.False(t, ds.FetchedAt.IsZero())

	got, err := store.Get(ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, got.ID)
	assert.Len(t, got.Records, 1)
	assert.Equal(t, "vacant lots in Miami", got.Description)

	assert.True(t, store.Delete(ds.ID))
	_, err = store.Get(ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Delete(ds.ID))
}

func TestStoreGetUnknownID(t *testing.T) {
	store := NewMemoryStore(10)
	_, err := store.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdate(t *testing.T) {
	store := NewMemoryStore(10)
	ds := store.Create([]types.PropertyRecord{
		record("a", "Miami", "0081", 7500),
		record("b", "Hialeah", "0081", 4000),
	}, types.PropertySearchParams{}, "")

	updated, err := store.Update(ds.ID, func(d *Dataset) error {
		d.Records = d.Records[:1]
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.Records, 1)

	got, err := store.Get(ds.ID)
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
}

func TestStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(10, WithTTL(time.Minute))
	current := time.Now()
	store.now = func() time.Time { return current }

	ds := store.Create(nil, types.PropertySearchParams{}, "")

	_, err := store.Get(ds.ID)
	require.NoError(t, err)

	// Access refreshes the TTL.
	current = current.Add(45 * time.Second)
	_, err = store.Get(ds.ID)
	require.NoError(t, err)

	current = current.Add(45 * time.Second)
	_, err = store.Get(ds.ID)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = store.Get(ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLRUEviction(t *testing.T) {
	store := NewMemoryStore(2)

	first := store.Create(nil, types.PropertySearchParams{}, "first")
	second := store.Create(nil, types.PropertySearchParams{}, "second")
	third := store.Create(nil, types.PropertySearchParams{}, "third")

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(second.ID)
	assert.NoError(t, err)
	_, err = store.Get(third.ID)
	assert.NoError(t, err)
}

func TestComputeStats(t *testing.T) {
	records := []types.PropertyRecord{
		{Folio: "a", City: "Miami", LandUseCode: "0081", LotSizeSqft: 5000, AssessedValue: 100000, YearBuilt: 1970},
		{Folio: "b", City: "Hialeah", LandUseCode: "0080", LotSizeSqft: 7500, AssessedValue: 200000, LastSalePrice: 350000},
		{Folio: "c", City: "Miami", LandUseCode: "0081", LotSizeSqft: 0, AssessedValue: 150000},
	}

	stats := Compute(records)
	assert.Equal(t, 3, stats.Count)

	lot := stats.Fields["lot_size_sqft"]
	assert.Equal(t, 2, lot.Count) // zero lot size excluded
	assert.Equal(t, 5000.0, lot.Min)
	assert.Equal(t, 7500.0, lot.Max)
	assert.InDelta(t, 6250.0, lot.Avg, 1e-9)

	assessed := stats.Fields["assessed_value"]
	assert.Equal(t, 3, assessed.Count)
	assert.InDelta(t, 150000.0, assessed.Avg, 1e-9)

	sale := stats.Fields["last_sale_price"]
	assert.Equal(t, 1, sale.Count)
	assert.Equal(t, 350000.0, sale.Min)

	year := stats.Fields["year_built"]
	assert.Equal(t, 1, year.Count)

	assert.Equal(t, []string{"Hialeah", "Miami"}, stats.Cities)
	assert.Equal(t, 2, stats.CitiesTotal)
	assert.Equal(t, []string{"0080", "0081"}, stats.LandUseCodes)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := Compute(nil)
	assert.Equal(t, 0, stats.Count)
	assert.Empty(t, stats.Fields)
}

func TestComputeStatsCapsCities(t *testing.T) {
	var records []types.PropertyRecord
	for i := 0; i < 40; i++ {
		records = append(records, types.PropertyRecord{
			Folio: string(rune('a' + i)),
			City:  "City-" + string(rune('A'+i)),
		})
	}

	stats := Compute(records)
	assert.Len(t, stats.Cities, maxUniqueCities)
	assert.Equal(t, 40, stats.CitiesTotal)
}
