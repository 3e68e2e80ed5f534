package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealcheck/internal/listing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProductCacheRoundtrip(t *testing.T) {
	store := newTestStore(t)

	miss, err := store.GetProductCache("deadbeef")
	require.NoError(t, err)
	assert.Nil(t, miss)

	entry := &ProductCacheEntry{
		Name:           "Apple iPhone 13 Pro",
		Brand:          "Apple",
		Model:          "iPhone 13 Pro",
		Category:       "Electronics > Phones",
		Specifications: map[string]string{"storage": "128GB"},
		SearchQuery:    "iPhone 13 Pro 128GB",
		Confidence:     "high",
	}
	require.NoError(t, store.SetProductCache("deadbeef", entry))

	got, err := store.GetProductCache("deadbeef")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, got)
}

func TestProductCacheUpsert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetProductCache("h", &ProductCacheEntry{Name: "first"}))
	require.NoError(t, store.SetProductCache("h", &ProductCacheEntry{Name: "second"}))

	got, err := store.GetProductCache("h")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Name)
}

func TestPruneProductCache(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetProductCache("fresh", &ProductCacheEntry{Name: "fresh"}))

	// Nothing is old enough to prune.
	pruned, err := store.PruneProductCache(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, pruned)

	// With a zero max age everything qualifies.
	pruned, err = store.PruneProductCache(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	got, err := store.GetProductCache("fresh")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnalysisLog(t *testing.T) {
	store := newTestStore(t)

	for i, verdict := range []string{"great_deal", "fair_price", "overpriced"} {
		require.NoError(t, store.LogAnalysis(&AnalysisRecord{
			ListingID: "l" + verdict,
			URL:       "https://marketplace.example/item",
			Title:     "Item",
			Verdict:   verdict,
			Score:     70 + i,
			RiskLevel: "low",
		}))
	}

	records, err := store.RecentAnalyses(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "overpriced", records[0].Verdict)
	assert.Equal(t, "fair_price", records[1].Verdict)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestRecordFromResult(t *testing.T) {
	l := &listing.Listing{ID: "42", URL: "https://m.example/42", Title: "Sofa"}

	savings := 6
	rec := RecordFromResult(l, &listing.AnalysisResult{
		Success: true,
		PriceComparison: &listing.PriceComparison{
			Verdict:        listing.VerdictFairPrice,
			SavingsPercent: &savings,
		},
		ScamAnalysis: &listing.ScamAnalysis{Score: 85, RiskLevel: listing.RiskLow},
	})

	assert.Equal(t, "42", rec.ListingID)
	assert.Equal(t, "fair_price", rec.Verdict)
	assert.Equal(t, 85, rec.Score)
	assert.Equal(t, "low", rec.RiskLevel)

	// Degraded result: no comparison, no scam analysis.
	rec = RecordFromResult(l, &listing.AnalysisResult{Success: true})
	assert.Equal(t, "unknown", rec.Verdict)
	assert.Zero(t, rec.Score)
}
