package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealcheck/internal/listing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "bare json", text: `{"name": "x"}`, want: `{"name": "x"}`},
		{name: "markdown fenced", text: "```json\n{\"name\": \"x\"}\n```", want: `{"name": "x"}`},
		{name: "surrounding prose", text: `Here you go: {"name": "x"} hope that helps`, want: `{"name": "x"}`},
		{name: "no object", text: "sorry, I cannot help with that", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifiedProduct(t *testing.T) {
	text := "```json\n" + `{
		"name": "Apple iPhone 13 Pro",
		"brand": "Apple",
		"model": "iPhone 13 Pro",
		"category": "Electronics > Phones",
		"specifications": {"storage": "128GB", "color": "Graphite"},
		"searchQuery": "iPhone 13 Pro 128GB",
		"confidence": "high"
	}` + "\n```"

	product, err := parseIdentifiedProduct(text)
	require.NoError(t, err)
	assert.Equal(t, "Apple iPhone 13 Pro", product.Name)
	assert.Equal(t, "Apple", product.Brand)
	assert.Equal(t, "iPhone 13 Pro 128GB", product.SearchQuery)
	assert.Equal(t, listing.ConfidenceHigh, product.Confidence)
	assert.Equal(t, "128GB", product.Specifications["storage"])
}

func TestParseIdentifiedProductRejectsNameless(t *testing.T) {
	_, err := parseIdentifiedProduct(`{"brand": "Apple"}`)
	assert.Error(t, err)
}

func TestParseRiskAssessment(t *testing.T) {
	text := `{
		"indicators": [
			{"factor": "Price too good to be true", "risk": "high", "description": "60% below market", "weight": 8},
			{"factor": "New seller account", "risk": "medium", "description": "Joined last week", "weight": 5}
		],
		"summary": "Several warning signs suggest caution"
	}`

	assessment, err := parseRiskAssessment(text)
	require.NoError(t, err)
	require.Len(t, assessment.Indicators, 2)
	assert.Equal(t, listing.RiskHigh, assessment.Indicators[0].Risk)
	assert.Equal(t, 8, assessment.Indicators[0].Weight)
	assert.Equal(t, "Several warning signs suggest caution", assessment.Summary)
}

func TestPromptContextHelpers(t *testing.T) {
	assert.Equal(t, "PRODUCT: Could not be identified", productContext(nil))
	assert.Equal(t, "IDENTIFIED PRODUCT: Sony WH-1000XM5 (Sony)", productContext(&listing.IdentifiedProduct{
		Name:  "Sony WH-1000XM5",
		Brand: "Sony",
	}))
	assert.Equal(t, "IDENTIFIED PRODUCT: Mystery Gadget (Unknown brand)", productContext(&listing.IdentifiedProduct{
		Name: "Mystery Gadget",
	}))

	assert.Empty(t, priceContext(nil))

	retail := 999
	got := priceContext(&listing.PriceComparison{ListingPrice: 800, AverageRetailPrice: &retail})
	assert.Contains(t, got, "Listing Price: £800")
	assert.Contains(t, got, "Average Retail Price: £999")
	assert.Contains(t, got, "Average Used Price: Unknown")
}

func TestFormatPromptDedents(t *testing.T) {
	got := formatPrompt(identifyPromptTemplate, "iPhone", "£800", "Good condition", "Used", "London")
	assert.True(t, len(got) > 0)
	assert.NotContains(t, got, "\n\t")
	assert.Contains(t, got, "Title: iPhone")
	assert.Contains(t, got, "Price: £800")
}

func TestHashListingSensitivity(t *testing.T) {
	base := &listing.Listing{Title: "iPhone", Description: "Nice", Condition: "Used", Price: "£800"}

	same := *base
	assert.Equal(t, hashListing(base), hashListing(&same))

	changed := *base
	changed.Description = "Nicer"
	assert.NotEqual(t, hashListing(base), hashListing(&changed))

	// Field boundaries matter: "ab"+"c" must differ from "a"+"bc".
	x := &listing.Listing{Title: "ab", Description: "c"}
	y := &listing.Listing{Title: "a", Description: "bc"}
	assert.NotEqual(t, hashListing(x), hashListing(y))
}
