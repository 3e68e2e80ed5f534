// Package serp finds comparable market prices via the SerpAPI Google
// Shopping engine.
package serp

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"dealcheck/internal/listing"
)

const apiBaseURL = "https://serpapi.com"

// marketCurrencies maps the Google country code we search in to the
// currency SerpAPI reports prices in for that market.
var marketCurrencies = map[string]string{
	"uk": "GBP",
	"us": "USD",
	"de": "EUR",
	"fr": "EUR",
}

// ClientOpts configures a Client. BaseURL is overridable for tests.
type ClientOpts struct {
	BaseURL string
	APIKey  string
	Country string // Google gl parameter, e.g. "uk"
	Lang    string // Google hl parameter, e.g. "en"
}

// Client is a SerpAPI Google Shopping client. A client with no API key is
// valid and returns no results, which lets the pipeline run without a
// SerpAPI subscription.
type Client struct {
	httpClient *resty.Client
	apiKey     string
	country    string
	lang       string
}

// NewClient creates a SerpAPI client.
func NewClient(opts ClientOpts) *Client {
	c := Client{
		apiKey:  opts.APIKey,
		country: "uk",
		lang:    "en",
	}
	if opts.Country != "" {
		c.country = opts.Country
	}
	if opts.Lang != "" {
		c.lang = opts.Lang
	}

	baseURL := apiBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	c.httpClient = resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")

	return &c
}

type shoppingResult struct {
	Title               string  `json:"title"`
	Link                string  `json:"link"`
	Source              string  `json:"source"`
	Price               string  `json:"price"`
	ExtractedPrice      float64 `json:"extracted_price"`
	Thumbnail           string  `json:"thumbnail"`
	Delivery            string  `json:"delivery,omitempty"`
	SecondHandCondition string  `json:"second_hand_condition,omitempty"`
}

type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
	Error           string           `json:"error"`
}

// Search runs a Google Shopping query and maps the results to price
// observations. Results without a positive extracted price are dropped.
// A listing with a second-hand condition is bucketed as used, everything
// else as new.
func (c *Client) Search(ctx context.Context, query string) ([]listing.PriceObservation, error) {
	if c.apiKey == "" {
		log.Debug().Msg("no SerpAPI key configured, skipping price search")
		return nil, nil
	}

	result := &searchResponse{}
	res, err := c.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "google_shopping",
			"q":       query,
			"api_key": c.apiKey,
			"gl":      c.country,
			"hl":      c.lang,
			"num":     "10",
		}).
		SetResult(result).
		Get("/search")
	if _, err = handleError(res, err); err != nil {
		return nil, err
	}

	if result.Error != "" {
		return nil, fmt.Errorf("serpapi error: %s", result.Error)
	}

	currency := marketCurrencies[c.country]
	if currency == "" {
		currency = "GBP"
	}

	observations := make([]listing.PriceObservation, 0, len(result.ShoppingResults))
	for _, r := range result.ShoppingResults {
		if r.ExtractedPrice <= 0 {
			continue
		}
		condition := listing.ConditionNew
		if r.SecondHandCondition != "" {
			condition = listing.ConditionUsed
		}
		source := r.Source
		if source == "" {
			source = "Unknown"
		}
		title := r.Title
		if title == "" {
			title = query
		}
		observations = append(observations, listing.PriceObservation{
			Source:    source,
			SourceURL: r.Link,
			Price:     r.ExtractedPrice,
			Currency:  currency,
			Condition: condition,
			Title:     title,
		})
	}

	return observations, nil
}

// handleError is a generic error handler for failing responses (>399
// status code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
