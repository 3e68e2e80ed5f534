// Package llm implements the product identifier and risk assessor on
// Google's Gemini API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"dealcheck/internal/listing"
)

const (
	geminiModel     = "gemini-3-flash-preview"
	geminiLiteModel = "gemini-2.5-flash-lite"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion      = 0.50
	geminiOutputPricePerMillion     = 3.00
	geminiLiteInputPricePerMillion  = 0.075
	geminiLiteOutputPricePerMillion = 0.30
)

const identifyPromptTemplate = `
	You are a product identification expert. Analyze this marketplace listing and identify the exact product being sold.

	LISTING DETAILS:
	Title: %s
	Price: %s
	Description: %s
	Condition: %s
	Location: %s

	Based on this information, identify:
	1. The exact product name
	2. Brand (if identifiable)
	3. Model number/name (if identifiable)
	4. Category (e.g., "Electronics > Phones", "Home > Furniture", "Vehicles > Cars")
	5. Key specifications that affect price
	6. An optimized search query to find this product's retail price online

	Respond in this exact JSON format:
	{
	  "name": "Full product name",
	  "brand": "Brand name or empty string",
	  "model": "Model number/name or empty string",
	  "category": "Category > Subcategory",
	  "specifications": {
	    "key1": "value1",
	    "key2": "value2"
	  },
	  "searchQuery": "optimized search query for price comparison",
	  "confidence": "high|medium|low"
	}

	Set confidence to:
	- "high" if you can identify the exact product
	- "medium" if you know the general product but not exact model
	- "low" if you're guessing based on limited information

	Return ONLY the JSON, no other text.`

const assessPromptTemplate = `
	You are a fraud detection expert for online marketplaces. Analyze this marketplace listing for potential scam indicators.

	LISTING DETAILS:
	Title: %s
	Price: %s
	Description: %s
	Condition: %s
	Seller Name: %s
	Seller Joined: %s
	Listed: %s
	Number of Images: %d

	%s

	%s
	Analyze for these scam indicators:
	1. Price too good to be true (significantly below market value)
	2. New seller account (joined recently)
	3. Vague or generic description
	4. Stock photos or limited images
	5. Urgency language ("must sell today", "moving")
	6. Requests for payment outside platform
	7. Inconsistencies in listing details
	8. High-value item with suspiciously low price

	Respond in this exact JSON format:
	{
	  "indicators": [
	    {
	      "factor": "Name of the risk factor",
	      "risk": "low|medium|high",
	      "description": "Brief explanation",
	      "weight": 5
	    }
	  ],
	  "summary": "One sentence overall assessment"
	}

	Weight is an integer from 1 to 10. Return ONLY the JSON, no other text.`

// Gemini implements both analysis.ProductIdentifier and
// analysis.RiskAssessor on the Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini client with the given API key.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Identify reads the listing's free-text fields and returns a structured
// product guess with a confidence label.
func (g *Gemini) Identify(ctx context.Context, l *listing.Listing) (*listing.IdentifiedProduct, error) {
	prompt := formatPrompt(identifyPromptTemplate,
		orNotProvided(l.Title),
		orNotProvided(l.Price),
		orNotProvided(l.Description),
		orNotProvided(l.Condition),
		orNotProvided(l.Location),
	)

	text, err := g.generate(ctx, geminiModel, prompt, "product identification",
		geminiInputPricePerMillion, geminiOutputPricePerMillion)
	if err != nil {
		return nil, err
	}

	return parseIdentifiedProduct(text)
}

// Assess reads the listing plus whatever product and price context is
// available and returns weighted scam indicators with a summary.
func (g *Gemini) Assess(ctx context.Context, l *listing.Listing, product *listing.IdentifiedProduct, comparison *listing.PriceComparison) (listing.RiskAssessment, error) {
	prompt := formatPrompt(assessPromptTemplate,
		orNotProvided(l.Title),
		orNotProvided(l.Price),
		orNotProvided(l.Description),
		orNotProvided(l.Condition),
		orUnknown(l.Seller.Name),
		orUnknown(l.Seller.Joined),
		orUnknown(l.ListedDate),
		len(l.Images),
		productContext(product),
		priceContext(comparison),
	)

	text, err := g.generate(ctx, geminiLiteModel, prompt, "risk assessment",
		geminiLiteInputPricePerMillion, geminiLiteOutputPricePerMillion)
	if err != nil {
		return listing.RiskAssessment{}, err
	}

	return parseRiskAssessment(text)
}

// generate runs a text-only Gemini request and logs token usage and cost.
func (g *Gemini) generate(ctx context.Context, model, prompt, task string, inputPrice, outputPrice float64) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini %s failed: %w", task, err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini for %s", task)
	}

	if result.UsageMetadata != nil {
		cost := calculateGeminiCost(
			int64(result.UsageMetadata.PromptTokenCount),
			int64(result.UsageMetadata.CandidatesTokenCount),
			inputPrice, outputPrice,
		)
		log.Info().
			Str("model", model).
			Str("task", task).
			Int("inputTokens", int(result.UsageMetadata.PromptTokenCount)).
			Int("outputTokens", int(result.UsageMetadata.CandidatesTokenCount)).
			Float64("costUSD", cost).
			Msg("llm call")
	}

	return result.Text(), nil
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

// formatPrompt dedents a prompt template and applies the arguments.
func formatPrompt(template string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(template)), a...)
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// productContext renders the identified-product block of the risk prompt.
func productContext(product *listing.IdentifiedProduct) string {
	if product == nil {
		return "PRODUCT: Could not be identified"
	}
	brand := product.Brand
	if brand == "" {
		brand = "Unknown brand"
	}
	return fmt.Sprintf("IDENTIFIED PRODUCT: %s (%s)", product.Name, brand)
}

// priceContext renders the price-analysis block of the risk prompt.
// Returns an empty string when no comparison was computed.
func priceContext(comparison *listing.PriceComparison) string {
	if comparison == nil {
		return ""
	}
	retail := "Unknown"
	if comparison.AverageRetailPrice != nil {
		retail = fmt.Sprintf("£%d", *comparison.AverageRetailPrice)
	}
	used := "Unknown"
	if comparison.AverageUsedPrice != nil {
		used = fmt.Sprintf("£%d", *comparison.AverageUsedPrice)
	}
	return fmt.Sprintf("PRICE ANALYSIS:\n- Listing Price: £%.0f\n- Average Retail Price: %s\n- Average Used Price: %s\n",
		comparison.ListingPrice, retail, used)
}

// extractJSONObject extracts a JSON object from text that may contain
// markdown code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

func parseIdentifiedProduct(text string) (*listing.IdentifiedProduct, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var product listing.IdentifiedProduct
	if err := json.Unmarshal([]byte(jsonStr), &product); err != nil {
		return nil, fmt.Errorf("failed to parse product JSON: %w (response: %s)", err, jsonStr)
	}
	if product.Name == "" {
		return nil, fmt.Errorf("product identification returned no name (response: %s)", jsonStr)
	}
	return &product, nil
}

func parseRiskAssessment(text string) (listing.RiskAssessment, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return listing.RiskAssessment{}, err
	}

	var assessment listing.RiskAssessment
	if err := json.Unmarshal([]byte(jsonStr), &assessment); err != nil {
		return listing.RiskAssessment{}, fmt.Errorf("failed to parse assessment JSON: %w (response: %s)", err, jsonStr)
	}
	return assessment, nil
}
