package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealcheck/internal/config"
	"dealcheck/internal/listing"
)

type stubAnalyzer struct {
	result *listing.AnalysisResult
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, l *listing.Listing) (*listing.AnalysisResult, error) {
	s.calls++
	return s.result, s.err
}

func testServerConfig() config.Server {
	return config.Server{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		RequestTimeout: time.Second,
		CORSOrigins:    []string{"*"},
	}
}

func analysisResult() *listing.AnalysisResult {
	savings := 6
	return &listing.AnalysisResult{
		Success: true,
		Product: &listing.IdentifiedProduct{
			Name:        "Apple iPhone 13 Pro",
			SearchQuery: "iPhone 13 Pro",
			Confidence:  listing.ConfidenceHigh,
		},
		PriceComparison: &listing.PriceComparison{
			ListingPrice:   800,
			Currency:       "GBP",
			RetailPrices:   []listing.PriceObservation{},
			UsedPrices:     []listing.PriceObservation{},
			Verdict:        listing.VerdictFairPrice,
			SavingsPercent: &savings,
		},
		ScamAnalysis: &listing.ScamAnalysis{
			Score:      85,
			RiskLevel:  listing.RiskLow,
			Indicators: []listing.ScamIndicator{},
			Summary:    "Looks legitimate",
		},
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	analyzer := &stubAnalyzer{result: analysisResult()}
	srv := New(testServerConfig(), analyzer, nil)

	body := `{"listing": {"id": "123", "title": "iPhone 13 Pro", "price": "£800"}}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got listing.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	require.NotNil(t, got.Product)
	assert.Equal(t, "Apple iPhone 13 Pro", got.Product.Name)
	require.NotNil(t, got.PriceComparison)
	assert.Equal(t, listing.VerdictFairPrice, got.PriceComparison.Verdict)
	require.NotNil(t, got.ScamAnalysis)
	assert.Equal(t, 85, got.ScamAnalysis.Score)
	assert.Empty(t, got.Error)
}

func TestAnalyzeMissingListing(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "null listing", body: `{"listing": null}`},
		{name: "invalid json", body: `{`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{result: analysisResult()}
			srv := New(testServerConfig(), analyzer, nil)

			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var got listing.AnalysisResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.False(t, got.Success)
			assert.Equal(t, "No listing data provided", got.Error)
			assert.Nil(t, got.Product)
			assert.Nil(t, got.PriceComparison)
			assert.Nil(t, got.ScamAnalysis)

			// The pipeline must never run without a listing.
			assert.Zero(t, analyzer.calls)
		})
	}
}

func TestAnalyzePipelineError(t *testing.T) {
	analyzer := &stubAnalyzer{err: assert.AnError}
	srv := New(testServerConfig(), analyzer, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"listing": {"id": "1"}}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var got listing.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.NotEmpty(t, got.Error)
}

func TestAnalyzeCORSPreflight(t *testing.T) {
	srv := New(testServerConfig(), &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://www.facebook.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(testServerConfig(), &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
