package listing

// Seller is the marketplace seller profile attached to a listing.
// Empty fields mean the scraper could not find the value.
type Seller struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`
	Joined     string `json:"joined"`
}

// Listing is a marketplace listing as captured by the browser extension.
// It is immutable input: the pipeline never modifies it.
type Listing struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Price       string   `json:"price"` // raw string as shown on the page, e.g. "£1,234.56"
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Seller      Seller   `json:"seller"`
	Images      []string `json:"images"`
	Condition   string   `json:"condition"`
	ListedDate  string   `json:"listedDate"`
}

// Confidence is how sure the identifier is about the product match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IdentifiedProduct is the structured product guess produced by the
// product identifier. SearchQuery is used verbatim as the price search key.
type IdentifiedProduct struct {
	Name           string            `json:"name"`
	Brand          string            `json:"brand"`
	Model          string            `json:"model"`
	Category       string            `json:"category"`
	Specifications map[string]string `json:"specifications"`
	SearchQuery    string            `json:"searchQuery"`
	Confidence     Confidence        `json:"confidence"`
}

// Condition classifies a comparable price observation.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionRefurbished Condition = "refurbished"
	ConditionUsed        Condition = "used"
)

// PriceObservation is one comparable listing found by the price search.
type PriceObservation struct {
	Source    string    `json:"source"`
	SourceURL string    `json:"sourceUrl"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Condition Condition `json:"condition"`
	Title     string    `json:"title"`
}

// Verdict is the price fairness judgment.
type Verdict string

const (
	VerdictGreatDeal  Verdict = "great_deal"
	VerdictFairPrice  Verdict = "fair_price"
	VerdictOverpriced Verdict = "overpriced"
	VerdictUnknown    Verdict = "unknown"
)

// PriceComparison is the benchmark computation over the found observations.
// Averages and SavingsPercent are nil when no data was available to compute
// them. Verdict is unknown iff no benchmark exists or the listing price is
// not positive.
type PriceComparison struct {
	ListingPrice       float64            `json:"listingPrice"`
	Currency           string             `json:"currency"`
	RetailPrices       []PriceObservation `json:"retailPrices"`
	UsedPrices         []PriceObservation `json:"usedPrices"`
	AverageRetailPrice *int               `json:"averageRetailPrice"`
	AverageUsedPrice   *int               `json:"averageUsedPrice"`
	Verdict            Verdict            `json:"verdict"`
	SavingsPercent     *int               `json:"savingsPercent"`
}

// Risk is the severity of a single scam indicator, and also the overall
// risk level derived from the trust score.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ScamIndicator is one named risk factor reported by the risk assessor.
// Weight is 1-10 by convention but not enforced.
type ScamIndicator struct {
	Factor      string `json:"factor"`
	Risk        Risk   `json:"risk"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// RiskAssessment is the raw output of the risk assessor before scoring.
type RiskAssessment struct {
	Indicators []ScamIndicator `json:"indicators"`
	Summary    string          `json:"summary"`
}

// ScamAnalysis is the scored trust verdict. Score is 0-100, higher means
// more trustworthy. Indicators keep the assessor's order for display.
type ScamAnalysis struct {
	Score      int             `json:"score"`
	RiskLevel  Risk            `json:"riskLevel"`
	Indicators []ScamIndicator `json:"indicators"`
	Summary    string          `json:"summary"`
}

// AnalysisResult is the assembled response for one analysis request.
// Success reflects only that the pipeline ran to completion; optional
// fields are nil when their stage degraded.
type AnalysisResult struct {
	Success         bool               `json:"success"`
	Product         *IdentifiedProduct `json:"product"`
	PriceComparison *PriceComparison   `json:"priceComparison"`
	ScamAnalysis    *ScamAnalysis      `json:"scamAnalysis"`
	Error           string             `json:"error,omitempty"`
}
